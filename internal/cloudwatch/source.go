package cloudwatch

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jmurray2011/skein/internal/logging"
	"github.com/jmurray2011/skein/internal/source"
	"github.com/jmurray2011/skein/pkg/lru"
	"github.com/jmurray2011/skein/pkg/timeutil"
)

const (
	// DefaultEventChanBuffer is the buffer size for follow channels
	DefaultEventChanBuffer = 100

	// DefaultLRUCacheCapacity is the capacity of the follow dedup cache
	DefaultLRUCacheCapacity = 10000

	// DefaultLookback is how far back Lines reads when no start is given
	DefaultLookback = time.Hour

	// DefaultPollInterval is how often Follow polls for new events
	DefaultPollInterval = 2 * time.Second

	// followOverlap re-reads a short window to catch late-arriving events
	followOverlap = 5 * time.Second
)

func init() {
	source.Register("cloudwatch", openSource)
}

// Source implements source.Source for a CloudWatch Logs log group.
type Source struct {
	logGroup     string
	streams      []string
	filter       string
	since        time.Time
	client       LogsClient
	profile      string
	region       string
	pollInterval time.Duration
	logger       logging.Logger
	now          func() time.Time
}

// NewSource creates a source over an existing client.
func NewSource(logGroup string, client LogsClient) *Source {
	return &Source{
		logGroup:     logGroup,
		client:       client,
		pollInterval: DefaultPollInterval,
		logger:       logging.Default(),
		now:          time.Now,
	}
}

// openSource opens cloudwatch:///log-group?profile=&region=&stream=&filter=&since=.
func openSource(u *url.URL, opts source.OpenOptions) (source.Source, error) {
	logGroup := u.Path
	if logGroup == "" {
		return nil, fmt.Errorf("cloudwatch URI requires a log group path")
	}

	q := u.Query()
	profile := q.Get("profile")
	if profile == "" {
		profile = opts.Profile
	}
	region := q.Get("region")
	if region == "" {
		region = opts.Region
	}

	var since time.Time
	if v := q.Get("since"); v != "" {
		t, err := timeutil.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("cloudwatch URI since=%q: %w", v, err)
		}
		since = t
	}

	sdk, resolvedRegion, err := NewLogsClient(context.Background(), profile, region)
	if err != nil {
		return nil, fmt.Errorf("failed to create CloudWatch Logs client: %w", err)
	}

	s := NewSource(logGroup, NewClient(sdk))
	s.profile = profile
	s.region = resolvedRegion
	s.since = since
	s.filter = q.Get("filter")
	if streams := q.Get("stream"); streams != "" {
		s.streams = strings.Split(streams, ",")
	}
	return s, nil
}

// Lines reads entries from the start of the lookback window.
func (s *Source) Lines(ctx context.Context, params source.LinesParams) ([]source.Line, error) {
	end := s.now()
	start := s.since
	if start.IsZero() {
		start = end.Add(-DefaultLookback)
	}

	limit := params.Limit
	if params.Start != nil || params.Filter != nil {
		// Joining and filtering happen here, so the page limit can't be exact.
		limit = 0
	}

	events, err := s.client.FilterLogEvents(ctx, FilterParams{
		LogGroup:  s.logGroup,
		Streams:   s.streams,
		Filter:    s.filter,
		StartTime: start,
		EndTime:   end,
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}

	var results []source.Line
	joiner := source.NewJoiner(params.Start)
	for _, e := range events {
		if entry, ok := joiner.Add(s.line(e)); ok && params.Keep(entry) {
			results = append(results, entry)
			if params.Full(len(results)) {
				return results, nil
			}
		}
	}
	if entry, ok := joiner.Flush(); ok && params.Keep(entry) {
		results = append(results, entry)
	}
	return results, nil
}

func (s *Source) line(e LogEvent) source.Line {
	return source.Line{
		Timestamp: e.Timestamp,
		Text:      e.Message,
		Stream:    e.LogStream,
		Origin:    s.logGroup + "/" + e.LogStream,
	}
}

// Follow polls for new events, deduplicating the overlapping window.
func (s *Source) Follow(ctx context.Context, params source.LinesParams) (<-chan source.Line, error) {
	lines := make(chan source.Line, DefaultEventChanBuffer)

	go func() {
		defer close(lines)

		lastTime := s.now().Add(-followOverlap)
		seen := lru.New[string, struct{}](DefaultLRUCacheCapacity)
		joiner := source.NewJoiner(params.Start)

		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()

		send := func(entry source.Line) bool {
			if !params.Keep(entry) {
				return true
			}
			select {
			case lines <- entry:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				endTime := s.now()

				events, err := s.client.FilterLogEvents(ctx, FilterParams{
					LogGroup:  s.logGroup,
					Streams:   s.streams,
					Filter:    s.filter,
					StartTime: lastTime,
					EndTime:   endTime,
				})
				if err != nil {
					s.logger.WithField(logging.FieldSource, s.logGroup).Debug("cloudwatch poll error: %v", err)
					continue
				}

				for _, e := range events {
					if !seen.Add(dedupKey(e), struct{}{}) {
						continue
					}
					if entry, ok := joiner.Add(s.line(e)); ok && !send(entry) {
						return
					}
				}
				// Events arrive whole between polls, so a pending entry is complete.
				if entry, ok := joiner.Flush(); ok && !send(entry) {
					return
				}

				lastTime = endTime.Add(-followOverlap)
			}
		}
	}()

	return lines, nil
}

func dedupKey(e LogEvent) string {
	if e.ID != "" {
		return e.ID
	}
	return fmt.Sprintf("%s:%s:%s", e.Timestamp.Format(time.RFC3339Nano), e.LogStream, e.Message)
}

// Type returns the source type identifier.
func (s *Source) Type() string {
	return "cloudwatch"
}

// Metadata returns source metadata.
func (s *Source) Metadata() source.Metadata {
	return source.Metadata{
		Type:    "cloudwatch",
		URI:     s.logGroup,
		Profile: s.profile,
		Region:  s.region,
	}
}

// Close releases any resources held by the source.
func (s *Source) Close() error {
	return nil
}

// LogGroup returns the log group name.
func (s *Source) LogGroup() string {
	return s.logGroup
}
