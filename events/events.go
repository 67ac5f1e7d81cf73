// Package events manages the culture/events calendar: CSV import in the
// German date formats the agency uses, store-backed CRUD, and display
// ordering ascending by start date.
package events

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"adboard/models"
	"adboard/store"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

const StorageKey = "calendar_events"

var (
	ErrNotFound     = errors.New("event not found")
	ErrMissingField = errors.New("title, start date, end date and location are required")
)

// Service is the CRUD layer over the stored event list
type Service struct {
	store store.Store
}

func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// List returns all events sorted ascending by start date. Read failures
// degrade to an empty list; the dashboard renders without the section.
func (s *Service) List() []models.CalendarEvent {
	var events []models.CalendarEvent
	if _, err := store.GetJSON(s.store, StorageKey, &events); err != nil {
		log.WithFields(log.Fields{"error": err}).Error("Error loading events")
		return []models.CalendarEvent{}
	}
	sortByStart(events)
	return events
}

func (s *Service) Create(title, description, location, startDate, endDate string) (models.CalendarEvent, error) {
	if title == "" || location == "" || startDate == "" || endDate == "" {
		return models.CalendarEvent{}, ErrMissingField
	}
	start, err := time.Parse(time.RFC3339, startDate)
	if err != nil {
		return models.CalendarEvent{}, fmt.Errorf("invalid start date: %w", err)
	}
	end, err := time.Parse(time.RFC3339, endDate)
	if err != nil {
		return models.CalendarEvent{}, fmt.Errorf("invalid end date: %w", err)
	}

	if description == "" {
		description = fmt.Sprintf("Event in %s", location)
	}

	events := s.List()
	event := models.CalendarEvent{
		Id:          nextManualId(events),
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Location:    strings.TrimSpace(location),
		StartDate:   start.UTC().Format(time.RFC3339),
		EndDate:     end.UTC().Format(time.RFC3339),
	}

	events = append(events, event)
	sortByStart(events)
	if err := store.SetJSON(s.store, StorageKey, events); err != nil {
		return models.CalendarEvent{}, err
	}
	return event, nil
}

func (s *Service) Update(id string, event models.CalendarEvent) (models.CalendarEvent, error) {
	events := s.List()
	for i := range events {
		if events[i].Id == id {
			event.Id = id
			events[i] = event
			sortByStart(events)
			if err := store.SetJSON(s.store, StorageKey, events); err != nil {
				return models.CalendarEvent{}, err
			}
			return event, nil
		}
	}
	return models.CalendarEvent{}, ErrNotFound
}

func (s *Service) Delete(id string) error {
	events := s.List()
	filtered := lo.Filter(events, func(e models.CalendarEvent, _ int) bool {
		return e.Id != id
	})
	if len(filtered) == len(events) {
		return ErrNotFound
	}
	return store.SetJSON(s.store, StorageKey, filtered)
}

// ReplaceAll swaps the whole stored set, used by the CSV upload endpoint
func (s *Service) ReplaceAll(events []models.CalendarEvent) error {
	sortByStart(events)
	return store.SetJSON(s.store, StorageKey, events)
}

func sortByStart(events []models.CalendarEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartDate < events[j].StartDate
	})
}

func nextManualId(events []models.CalendarEvent) string {
	taken := lo.SliceToMap(events, func(e models.CalendarEvent) (string, bool) {
		return e.Id, true
	})
	for counter := 1; ; counter++ {
		id := fmt.Sprintf("manual-event-%d", counter)
		if !taken[id] {
			return id
		}
	}
}

// --- CSV import ---

var germanMonths = map[string]time.Month{
	"januar": time.January, "februar": time.February, "märz": time.March,
	"april": time.April, "mai": time.May, "juni": time.June,
	"juli": time.July, "august": time.August, "september": time.September,
	"oktober": time.October, "november": time.November, "dezember": time.December,
}

var yearPattern = regexp.MustCompile(`\b(20\d{2})\b`)

// ParseGermanDate handles the date shapes found in the agency event lists:
// "20.10.2025", the range form "06.–09.10.2025" (the end date wins), and
// month names like "September 2026" (first of the month).
func ParseGermanDate(dateStr string) (time.Time, bool, error) {
	cleaned := strings.TrimSpace(dateStr)
	isRange := strings.Contains(cleaned, ".–")

	candidate := cleaned
	if isRange {
		parts := strings.SplitN(cleaned, ".–", 2)
		candidate = parts[1]
	}

	digits := regexp.MustCompile(`[^\d.]`).ReplaceAllString(candidate, "")
	if parts := strings.Split(strings.Trim(digits, "."), "."); len(parts) == 3 {
		day, errD := strconv.Atoi(parts[0])
		month, errM := strconv.Atoi(parts[1])
		year, errY := strconv.Atoi(parts[2])
		if errD == nil && errM == nil && errY == nil && month >= 1 && month <= 12 {
			return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), isRange, nil
		}
	}

	lower := strings.ToLower(cleaned)
	for name, month := range germanMonths {
		if strings.Contains(lower, name) {
			if match := yearPattern.FindStringSubmatch(lower); match != nil {
				year, _ := strconv.Atoi(match[1])
				return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), false, nil
			}
		}
	}

	return time.Time{}, false, fmt.Errorf("unable to parse date: %s", dateStr)
}

// ParseCSV converts raw CSV content (name, date, location columns with a
// header row) into calendar events. Malformed lines are logged and skipped.
func ParseCSV(csvContent string) []models.CalendarEvent {
	lines := lo.Filter(strings.Split(csvContent, "\n"), func(line string, _ int) bool {
		return strings.TrimSpace(line) != ""
	})
	if len(lines) < 2 {
		return []models.CalendarEvent{}
	}

	events := []models.CalendarEvent{}
	for i, line := range lines[1:] {
		fields := splitCSVLine(line)
		if len(fields) < 3 {
			log.WithFields(log.Fields{"line": i + 2}).Warn("Skipping malformed CSV line")
			continue
		}

		name := strings.TrimSpace(fields[0])
		dateStr := strings.TrimSpace(fields[1])
		location := strings.Trim(strings.TrimSpace(fields[2]), `"`)
		if name == "" || dateStr == "" || location == "" {
			log.WithFields(log.Fields{"line": i + 2}).Warn("Skipping incomplete event")
			continue
		}

		start, isRange, err := ParseGermanDate(dateStr)
		if err != nil {
			log.WithFields(log.Fields{
				"event": name,
				"date":  dateStr,
				"error": err,
			}).Warn("Failed to parse event date")
			continue
		}

		end := start
		if isRange {
			end = start.AddDate(0, 0, 1)
		}

		events = append(events, models.CalendarEvent{
			Id:          fmt.Sprintf("csv-event-%d", i+1),
			Title:       name,
			Description: fmt.Sprintf("Advertising and marketing event in %s", location),
			Location:    location,
			StartDate:   start.Format(time.RFC3339),
			EndDate:     end.Format(time.RFC3339),
		})
	}

	return events
}

// ExportCSV renders events back into the import format. Locations
// containing commas are quoted; dates are exported as plain DD.MM.YYYY.
func ExportCSV(events []models.CalendarEvent) string {
	var b strings.Builder
	b.WriteString("Name,Datum,Ort\n")
	for _, event := range events {
		date := event.StartDate
		if parsed, err := time.Parse(time.RFC3339, event.StartDate); err == nil {
			date = parsed.Format("02.01.2006")
		}
		location := event.Location
		if strings.Contains(location, ",") {
			location = `"` + location + `"`
		}
		fmt.Fprintf(&b, "%s,%s,%s\n", event.Title, date, location)
	}
	return b.String()
}

// splitCSVLine splits one CSV line respecting double-quoted fields
func splitCSVLine(line string) []string {
	fields := []string{}
	var current strings.Builder
	inQuotes := false

	for _, char := range line {
		switch {
		case char == '"':
			inQuotes = !inQuotes
		case char == ',' && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(char)
		}
	}
	fields = append(fields, current.String())
	return fields
}
