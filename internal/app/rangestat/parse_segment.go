package rangestat

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/akmistry/lazyrange/internal/segment"
)

var (
	ErrInvalidSegmentString = errors.New("invalid segment string")

	segmentPattern = regexp.MustCompile(`^([0-9]+)\+([0-9]+)$`)
)

// ParseSegment parses a segment written as OFFSET+COUNT, e.g. "100+50".
func ParseSegment(str string) (segment.Segment, error) {
	parts := segmentPattern.FindStringSubmatch(strings.TrimSpace(str))
	if len(parts) != 3 {
		return segment.Segment{}, ErrInvalidSegmentString
	}

	offset, err := strconv.ParseInt(parts[1], 10, 32)
	if err != nil {
		return segment.Segment{}, fmt.Errorf("error parsing segment offset: %w", err)
	}
	count, err := strconv.ParseInt(parts[2], 10, 32)
	if err != nil {
		return segment.Segment{}, fmt.Errorf("error parsing segment count: %w", err)
	}
	return segment.New(int(offset), int(count)), nil
}

// ParseSegmentList parses comma separated segments. An empty string is an
// empty list.
func ParseSegmentList(str string) ([]segment.Segment, error) {
	if strings.TrimSpace(str) == "" {
		return nil, nil
	}

	var segs []segment.Segment
	for _, f := range strings.Split(str, ",") {
		s, err := ParseSegment(f)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", f, err)
		}
		segs = append(segs, s)
	}
	return segs, nil
}
