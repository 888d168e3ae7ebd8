// Package cloudwatch reads sample log lines from AWS CloudWatch Logs.
package cloudwatch

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
)

// MaxFilterPageSize is the largest page FilterLogEvents returns.
const MaxFilterPageSize = 10000

var (
	pipeRegex       = regexp.MustCompile(`\|`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// LogsClient is the subset of CloudWatch Logs operations the source uses.
type LogsClient interface {
	FilterLogEvents(ctx context.Context, params FilterParams) ([]LogEvent, error)
}

// FilterLogEventsAPI is the SDK call behind Client.
type FilterLogEventsAPI interface {
	FilterLogEvents(ctx context.Context, params *cloudwatchlogs.FilterLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.FilterLogEventsOutput, error)
}

// Client wraps the CloudWatch Logs SDK client.
type Client struct {
	api FilterLogEventsAPI
}

// NewClient creates a new Client wrapper from an SDK client.
func NewClient(api FilterLogEventsAPI) *Client {
	return &Client{api: api}
}

// FilterParams selects events from a log group.
type FilterParams struct {
	LogGroup  string
	Streams   []string
	Filter    string // pipe-separated terms or a CloudWatch filter pattern
	StartTime time.Time
	EndTime   time.Time
	Limit     int // 0 reads every page
}

// LogEvent is a single event returned by FilterLogEvents.
type LogEvent struct {
	ID        string
	Timestamp time.Time
	LogStream string
	Message   string
}

// FilterLogEvents returns events in ascending time order, following
// pagination until the limit is reached.
func (c *Client) FilterLogEvents(ctx context.Context, params FilterParams) ([]LogEvent, error) {
	input := &cloudwatchlogs.FilterLogEventsInput{
		LogGroupName: aws.String(params.LogGroup),
		StartTime:    aws.Int64(params.StartTime.UnixMilli()),
		EndTime:      aws.Int64(params.EndTime.UnixMilli()),
	}
	if len(params.Streams) > 0 {
		input.LogStreamNames = params.Streams
	}
	if pattern := convertToFilterPattern(params.Filter); pattern != "" {
		input.FilterPattern = aws.String(pattern)
	}

	var events []LogEvent
	for {
		if params.Limit > 0 {
			input.Limit = aws.Int32(int32(min(params.Limit-len(events), MaxFilterPageSize)))
		}

		result, err := c.api.FilterLogEvents(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to filter log events: %w", err)
		}

		for _, e := range result.Events {
			if e.Timestamp == nil || e.Message == nil {
				continue
			}
			events = append(events, LogEvent{
				ID:        aws.ToString(e.EventId),
				Timestamp: time.UnixMilli(*e.Timestamp).UTC(),
				LogStream: aws.ToString(e.LogStreamName),
				Message:   strings.TrimRight(*e.Message, "\n"),
			})
		}

		if params.Limit > 0 && len(events) >= params.Limit {
			return events[:params.Limit], nil
		}
		if result.NextToken == nil || aws.ToString(result.NextToken) == aws.ToString(input.NextToken) {
			return events, nil
		}
		input.NextToken = result.NextToken
	}
}

// convertToFilterPattern converts "error|exception" to the CloudWatch
// pattern ?"error" ?"exception". Other input passes through unchanged.
func convertToFilterPattern(filter string) string {
	if filter == "" {
		return ""
	}

	parts := pipeRegex.Split(filter, -1)
	if len(parts) > 1 {
		var terms []string
		for _, p := range parts {
			p = strings.TrimSpace(whitespaceRegex.ReplaceAllString(p, " "))
			if p != "" {
				terms = append(terms, "?\""+p+"\"")
			}
		}
		return strings.Join(terms, " ")
	}

	return filter
}
