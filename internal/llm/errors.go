package llm

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	serrors "github.com/huimingz/shipit-go/internal/errors"
	"google.golang.org/genai"
)

// APIError is a provider response with a non-success HTTP status
type APIError struct {
	StatusCode int
	Message    string
	Header     http.Header
}

func (e *APIError) Error() string {
	return fmt.Sprintf("status code: %d, message: %s", e.StatusCode, e.Message)
}

// HTTPStatusCode returns the response status
func (e *APIError) HTTPStatusCode() int {
	return e.StatusCode
}

// RetryError is returned when every retry attempt failed with a retryable error
type RetryError struct {
	Attempts int
	LastErr  error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *RetryError) Unwrap() error {
	return e.LastErr
}

// OutputFailure classifies why structured output could not be used
type OutputFailure int

const (
	// OutputMissing means the model produced neither a tool call nor parseable text
	OutputMissing OutputFailure = iota
	// OutputMalformed means the arguments were not valid JSON
	OutputMalformed
	// OutputSchemaMismatch means the JSON did not satisfy the response schema
	OutputSchemaMismatch
)

// OutputError reports unusable structured output from the model
type OutputError struct {
	Reason OutputFailure
	Detail string
	Raw    string
	cause  error
}

func (e *OutputError) Error() string {
	switch e.Reason {
	case OutputMalformed:
		return "malformed structured output: " + e.Detail
	case OutputSchemaMismatch:
		return "structured output did not match schema: " + e.Detail
	default:
		return "no structured output: " + e.Detail
	}
}

func (e *OutputError) Unwrap() error {
	return e.cause
}

// statusPattern finds status codes embedded in SDK error strings
var statusPattern = regexp.MustCompile(`status code: (\d{3})`)

// StatusCodeOf extracts an HTTP status code from err, if it carries one
func StatusCodeOf(err error) (int, bool) {
	if err == nil {
		return 0, false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, true
	}

	var genaiErr genai.APIError
	if errors.As(err, &genaiErr) && genaiErr.Code > 0 {
		return genaiErr.Code, true
	}

	var httpStatus interface{ HTTPStatusCode() int }
	if errors.As(err, &httpStatus) {
		return httpStatus.HTTPStatusCode(), true
	}

	var statusCoder interface{ StatusCode() int }
	if errors.As(err, &statusCoder) {
		return statusCoder.StatusCode(), true
	}

	if m := statusPattern.FindStringSubmatch(err.Error()); m != nil {
		code, _ := strconv.Atoi(m[1])
		return code, true
	}

	return 0, false
}

// providerMessage returns the provider's own message for err
func providerMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var genaiErr genai.APIError
	if errors.As(err, &genaiErr) && genaiErr.Message != "" {
		return genaiErr.Message
	}
	return err.Error()
}

// retryAfterHint reads retry-after-ms or retry-after from the response headers,
// or the RetryInfo detail Gemini attaches to quota errors
func retryAfterHint(err error) string {
	if d, ok := geminiRetryDelay(err); ok {
		return fmt.Sprintf(" Retry after ~%ds.", int(math.Ceil(d.Seconds())))
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Header == nil {
		return ""
	}

	if v := apiErr.Header.Get("retry-after-ms"); v != "" {
		if ms, perr := strconv.ParseFloat(v, 64); perr == nil && ms >= 0 {
			return fmt.Sprintf(" Retry after ~%ds.", int(math.Ceil(ms/1000)))
		}
	}
	if v := apiErr.Header.Get("retry-after"); v != "" {
		if s, perr := strconv.ParseFloat(v, 64); perr == nil && s >= 0 {
			return fmt.Sprintf(" Retry after ~%ds.", int(math.Ceil(s)))
		}
	}
	return ""
}

// geminiRetryDelay finds google.rpc.RetryInfo.retryDelay in a genai error
func geminiRetryDelay(err error) (time.Duration, bool) {
	var genaiErr genai.APIError
	if !errors.As(err, &genaiErr) {
		return 0, false
	}

	for _, detail := range genaiErr.Details {
		typ, _ := detail["@type"].(string)
		if !strings.HasSuffix(typ, "google.rpc.RetryInfo") {
			continue
		}
		raw, ok := detail["retryDelay"].(string)
		if !ok {
			continue
		}
		if d, perr := time.ParseDuration(raw); perr == nil && d >= 0 {
			return d, true
		}
	}
	return 0, false
}

// describeStatus maps an HTTP status to advice
func describeStatus(code int, err error) string {
	switch {
	case code == http.StatusTooManyRequests:
		return "Rate limit hit (429). Split large diffs, retry later, or pick another provider/model." + retryAfterHint(err)
	case code == http.StatusRequestEntityTooLarge:
		return "Request too large for the provider (413). Split your diff into smaller commits or use a model with higher context limits."
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return "Provider authentication failed. Verify the API key and account access for the selected provider."
	case code == http.StatusBadRequest:
		return "Provider rejected the request (400). Check model/provider compatibility and request format. " + providerMessage(err)
	case code == http.StatusNotFound:
		return "Unknown model for selected provider. Check `SHIPIT_PROVIDER` and `SHIPIT_MODEL`. " + providerMessage(err)
	default:
		return fmt.Sprintf("AI provider call failed with status %d. %s", code, providerMessage(err))
	}
}

// DescribeError turns a provider failure into an actionable message
func DescribeError(err error) string {
	if err == nil {
		return ""
	}

	if serrors.IsKind(err, serrors.KindConfig) {
		return err.Error()
	}

	var retryErr *RetryError
	if errors.As(err, &retryErr) {
		return "AI request failed after retries. " + DescribeError(retryErr.LastErr)
	}

	var outErr *OutputError
	if errors.As(err, &outErr) {
		switch outErr.Reason {
		case OutputMalformed:
			return "Provider returned malformed structured output. Retry, split the diff, or switch model/provider."
		case OutputSchemaMismatch:
			return "Provider output did not match the expected schema. Retry, split the diff, or switch model/provider."
		default:
			return "Provider did not return valid structured output. Retry or use a different model/provider."
		}
	}

	if code, ok := StatusCodeOf(err); ok {
		return describeStatus(code, err)
	}

	msg := err.Error()
	if strings.Contains(strings.ToLower(msg), "api key") {
		return "Missing or invalid API key configuration. " + msg
	}
	return "AI provider call failed. " + msg
}
