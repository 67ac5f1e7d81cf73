package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// TomlServer holds HTTP server settings
type TomlServer struct {
	Hostname   string `toml:"hostname"`
	Port       int    `toml:"port"`
	CorsOrigin string `toml:"cors_origin,omitempty"`
}

// TomlStorage selects the persistence backend. Mode is either "file" or
// "sqlite"; the selection happens once at startup and is never re-checked.
type TomlStorage struct {
	Mode     string `toml:"mode"`
	DataDir  string `toml:"data_dir"`
	Database string `toml:"database,omitempty"`
}

// TomlFallbackArticle is one entry of the built-in article set served when
// every configured feed comes back empty
type TomlFallbackArticle struct {
	Title  string `toml:"title"`
	Url    string `toml:"url"`
	Source string `toml:"source,omitempty"`
}

// TomlDefaultFeed seeds the registry when no feeds are stored yet
type TomlDefaultFeed struct {
	Id    string `toml:"id"`
	Url   string `toml:"url"`
	Title string `toml:"title"`
}

// TomlNews configures the news ingestion pipeline
type TomlNews struct {
	PageSize         int                   `toml:"page_size"`
	ExcerptLimit     int                   `toml:"excerpt_limit"`
	FetchTimeout     Duration              `toml:"fetch_timeout"`
	FetchRetries     int                   `toml:"fetch_retries"`
	PlaceholderImage string                `toml:"placeholder_image"`
	DefaultFeeds     []TomlDefaultFeed     `toml:"default_feeds"`
	FallbackArticles []TomlFallbackArticle `toml:"fallback_articles"`
}

// TomlImages configures the image extraction heuristics. Both lists are
// heuristic by design, not a content-type check.
type TomlImages struct {
	Extensions  []string `toml:"extensions"`
	HostAllowed []string `toml:"host_allowed"`
}

// TomlSocial configures the Instagram-style pipeline
type TomlSocial struct {
	PostsPerFeed    int               `toml:"posts_per_feed"`
	AllowedCounts   []int             `toml:"allowed_counts"`
	FetchTimeout    Duration          `toml:"fetch_timeout"`
	DefaultFeeds    []TomlDefaultFeed `toml:"default_feeds"`
	FallbackCaption string            `toml:"fallback_caption"`
}

type TomlAuth struct {
	PasswordHash string   `toml:"password_hash,omitempty"`
	JwtSecret    string   `toml:"jwt_secret"`
	TokenTTL     Duration `toml:"token_ttl"`
}

type TomlEvents struct {
	CsvPath string `toml:"csv_path,omitempty"`
}

type TomlSlideshow struct {
	Dir string `toml:"dir"`
}

// TomlConfig represents the top-level configuration
type TomlConfig struct {
	Server    TomlServer    `toml:"server"`
	Storage   TomlStorage   `toml:"storage"`
	News      TomlNews      `toml:"news"`
	Images    TomlImages    `toml:"images"`
	Social    TomlSocial    `toml:"social"`
	Auth      TomlAuth      `toml:"auth"`
	Events    TomlEvents    `toml:"events"`
	Slideshow TomlSlideshow `toml:"slideshow"`
}

// Duration lets TOML carry values like "10s" directly
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func LoadConfig(path string) (*TomlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return config, nil
}

// LoadConfigOrDefault loads the file when it exists and falls back to the
// built-in defaults when it does not, so the server can start without any
// config file at all.
func LoadConfigOrDefault(path string) (*TomlConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}

// DefaultConfig returns a config with every tunable set to a usable value
func DefaultConfig() *TomlConfig {
	return &TomlConfig{
		Server: TomlServer{
			Hostname: "localhost",
			Port:     3000,
		},
		Storage: TomlStorage{
			Mode:     "file",
			DataDir:  "data",
			Database: "adboard.db",
		},
		News: TomlNews{
			PageSize:         12,
			ExcerptLimit:     280,
			FetchTimeout:     Duration{10 * time.Second},
			FetchRetries:     2,
			PlaceholderImage: "/images/breaking-news-fallback.svg",
			FallbackArticles: []TomlFallbackArticle{
				{Title: "Agentur gewinnt neuen Automotive-Etat", Url: "https://www.horizont.net/agenturen/aktuell", Source: "HORIZONT"},
				{Title: "Pitch-Update: Neue Leadagentur für Retail-Marke", Url: "https://www.horizont.net/agenturen/aktuell", Source: "HORIZONT"},
				{Title: "Kreation der Woche: Kampagne setzt auf KI-Visuals", Url: "https://www.horizont.net/agenturen/aktuell", Source: "HORIZONT"},
				{Title: "Fusion am Markt: Netzwerk integriert Digital-Spezialisten", Url: "https://www.horizont.net/agenturen/aktuell", Source: "HORIZONT"},
			},
			DefaultFeeds: []TomlDefaultFeed{
				{Id: "horizont-news", Url: "https://www.horizont.net/news/feed/", Title: "HORIZONT News"},
			},
		},
		Images: TomlImages{
			Extensions: []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg"},
			HostAllowed: []string{
				"imgur.com", "flickr.com", "unsplash.com", "pixabay.com",
				"pexels.com", "cdn", "static",
			},
		},
		Social: TomlSocial{
			PostsPerFeed:    6,
			AllowedCounts:   []int{3, 6, 9},
			FetchTimeout:    Duration{10 * time.Second},
			FallbackCaption: "Visit our page for the latest updates",
		},
		Auth: TomlAuth{
			JwtSecret: "change-me-in-production",
			TokenTTL:  Duration{24 * time.Hour},
		},
		Slideshow: TomlSlideshow{
			Dir: "uploads",
		},
	}
}
