package event

import (
	"time"

	"github.com/greencity/event-service/internal/search"
)

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// RealClock is the wall clock.
var RealClock Clock = realClock{}

// SearchSettings tune the search use case.
type SearchSettings struct {
	Location        *time.Location
	DefaultLanguage string
	MaxPageSize     int
}

type Service struct {
	repo     EventRepo
	pub      EventPublisher
	cache    Cache
	clock    Clock
	executor *search.Executor

	settings SearchSettings
	// outbox: write domain events in the create transaction instead of
	// publishing them after commit.
	outbox bool

	ttlDetails time.Duration
	ttlSearch  time.Duration
}

func New(
	repo EventRepo,
	clock Clock,
	pub EventPublisher,
	cache Cache,
	ttlDetails, ttlSearch time.Duration,
	settings SearchSettings,
) *Service {
	// Defaults if 0
	if ttlDetails == 0 {
		ttlDetails = 5 * time.Minute
	}
	if ttlSearch == 0 {
		ttlSearch = 15 * time.Second
	}
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	if settings.DefaultLanguage == "" {
		settings.DefaultLanguage = "en"
	}
	if settings.MaxPageSize <= 0 {
		settings.MaxPageSize = 100
	}
	if clock == nil {
		clock = RealClock
	}

	return &Service{
		repo:       repo,
		pub:        pub,
		cache:      cache,
		clock:      clock,
		executor:   search.NewExecutor(repo, settings.Location).WithClock(clock.Now),
		settings:   settings,
		outbox:     true,
		ttlDetails: ttlDetails,
		ttlSearch:  ttlSearch,
	}
}

// WithOutbox toggles the transactional outbox. When disabled, domain events
// are published best-effort after commit.
func (s *Service) WithOutbox(enabled bool) *Service {
	s.outbox = enabled
	return s
}
