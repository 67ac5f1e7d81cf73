package models

import "time"

// FeedConfig describes one configured RSS feed in the registry
type FeedConfig struct {
	Id          string `json:"id"`
	Url         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"isActive"`
	LastChecked string `json:"lastChecked,omitempty"`
	ItemCount   int    `json:"itemCount,omitempty"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// Article is the normalized, image-guaranteed representation of one feed item.
// ImageUrl always points at a real extracted image; items without one never
// become articles in the first place.
type Article struct {
	Id            string    `json:"id"`
	Title         string    `json:"title"`
	Headline      string    `json:"headline"`
	Content       string    `json:"content"`
	Url           string    `json:"url"`
	ImageUrl      string    `json:"imageUrl"`
	PublishedAt   time.Time `json:"publishedAt"`
	FormattedDate string    `json:"formattedDate"`
	Category      string    `json:"category"`
	Author        string    `json:"author"`
	Source        string    `json:"source"`
	Rank          int       `json:"rank"`
	SearchVolume  string    `json:"searchVolume,omitempty"`
}

// SocialPost is one Instagram-style post taken from a social RSS proxy feed
type SocialPost struct {
	Id       string `json:"id"`
	ImageUrl string `json:"imageUrl"`
	Caption  string `json:"caption"`
	Likes    int    `json:"likes"`
	Comments int    `json:"comments"`
	PostedAt string `json:"postedAt"`
}

// SocialFeed groups the posts of one social account
type SocialFeed struct {
	Title string       `json:"title"`
	Posts []SocialPost `json:"posts"`
}

type CalendarEvent struct {
	Id          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
}

type SlideshowImage struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	Size         int64  `json:"size"`
	SizeLabel    string `json:"sizeLabel,omitempty"`
	LastModified int64  `json:"lastModified"`
}

type NewsResponse struct {
	Articles []Article `json:"articles"`
}

type SocialResponse struct {
	Feeds []SocialFeed `json:"feeds"`
}

type EventsResponse struct {
	Events []CalendarEvent `json:"events"`
}

// DashboardResponse is the composite payload for the rotating display. It is
// always served with status 200; a failed section carries fallback content
// and Error is set so the front end can surface degraded state if it wants.
type DashboardResponse struct {
	News        []Article       `json:"news"`
	SocialFeeds []SocialFeed    `json:"socialFeeds"`
	Events      []CalendarEvent `json:"events"`
	LastUpdated time.Time       `json:"lastUpdated"`
	Error       string          `json:"error,omitempty"`
}

// RefreshEvent is broadcast to connected dashboards when an admin mutation
// invalidates what they are showing
type RefreshEvent struct {
	Section string    `json:"section"`
	At      time.Time `json:"at"`
}

// FeedReport is the result of analyzing a single feed URL from the admin panel
type FeedReport struct {
	Url        string `json:"url"`
	Title      string `json:"title"`
	ItemCount  int    `json:"itemCount"`
	WithImage  int    `json:"withImage"`
	SampleItem string `json:"sampleItem,omitempty"`
}
