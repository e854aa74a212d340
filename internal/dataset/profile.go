package dataset

import (
	"embed"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ArthurrMrv/graph-project/internal/platform/logger"
)

const profileEnv = "DATASET_PROFILE_YAML"

//go:embed dataset.yaml
var profileFS embed.FS

// PriceColumns maps logical price fields to source CSV header names.
type PriceColumns struct {
	Date   string `yaml:"date"`
	Ticker string `yaml:"ticker"`
	Open   string `yaml:"open"`
	High   string `yaml:"high"`
	Low    string `yaml:"low"`
	Close  string `yaml:"close"`
	Volume string `yaml:"volume"`
}

// SocialColumns maps logical social fields to source CSV header names.
// Only date, ticker and text are required; the rest are the optional
// columns the schema negotiator keys on.
type SocialColumnsSpec struct {
	Date       string `yaml:"date"`
	Ticker     string `yaml:"ticker"`
	Text       string `yaml:"text"`
	ID         string `yaml:"id"`
	Author     string `yaml:"author"`
	Topics     string `yaml:"topics"`
	Event      string `yaml:"event"`
	Sentiment  string `yaml:"sentiment"`
	Confidence string `yaml:"confidence"`
}

type PriceProfile struct {
	Path    string       `yaml:"path"`
	Columns PriceColumns `yaml:"columns"`
}

type SocialProfile struct {
	Path           string            `yaml:"path"`
	TopicSeparator string            `yaml:"topic_separator"`
	Columns        SocialColumnsSpec `yaml:"columns"`
}

// Profile describes where the CSV sources live and how their headers map
// onto the pipeline's record fields.
type Profile struct {
	Prices PriceProfile  `yaml:"prices"`
	Social SocialProfile `yaml:"social"`
}

// LoadProfile reads the dataset profile: an explicit YAML path from the
// environment wins, then the embedded default. A broken override falls
// back to the embedded profile with a warning rather than failing startup.
func LoadProfile(log *logger.Logger) Profile {
	if path := strings.TrimSpace(os.Getenv(profileEnv)); path != "" {
		raw, err := os.ReadFile(path)
		if err == nil {
			var p Profile
			if err := yaml.Unmarshal(raw, &p); err == nil && p.Prices.Path != "" {
				return withDefaults(p)
			}
			if log != nil {
				log.Warn("dataset profile override unparseable, using embedded default", "path", path)
			}
		} else if log != nil {
			log.Warn("dataset profile override unreadable, using embedded default", "path", path, "error", err)
		}
	}

	raw, err := profileFS.ReadFile("dataset.yaml")
	if err == nil {
		var p Profile
		if err := yaml.Unmarshal(raw, &p); err == nil {
			return withDefaults(p)
		}
	}
	if log != nil {
		log.Warn("embedded dataset profile unparseable, using built-in fallback")
	}
	return withDefaults(Profile{})
}

func withDefaults(p Profile) Profile {
	if p.Prices.Path == "" {
		p.Prices.Path = "data/stock_yfinance_data.csv"
	}
	if p.Prices.Columns.Date == "" {
		p.Prices.Columns = PriceColumns{
			Date: "Date", Ticker: "Stock Name",
			Open: "Open", High: "High", Low: "Low",
			Close: "Close", Volume: "Volume",
		}
	}
	if p.Social.Path == "" {
		p.Social.Path = "data/stock_tweets.csv"
	}
	if p.Social.TopicSeparator == "" {
		p.Social.TopicSeparator = "|"
	}
	if p.Social.Columns.Date == "" {
		p.Social.Columns = SocialColumnsSpec{
			Date: "Date", Ticker: "Stock Name", Text: "Tweet",
			ID: "TweetId", Author: "User", Topics: "Topics",
			Event: "EventId", Sentiment: "Sentiment", Confidence: "Confidence",
		}
	}
	return p
}
