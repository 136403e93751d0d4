package fetcher

import "fmt"

// FetchError means a document could not be retrieved. Status is the upstream
// HTTP status, or 0 when no response was received.
type FetchError struct {
	Document string
	URL      string
	Status   int
	Err      error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("failed to fetch %s: upstream responded with status %d", e.Document, e.Status)
	}
	return fmt.Sprintf("failed to fetch %s: %v", e.Document, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError means a document was retrieved but is not valid JSON
type ParseError struct {
	Document string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Document, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
