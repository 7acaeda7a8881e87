package request

import (
	"fmt"
	"strconv"

	"github.com/kailas-cloud/qdex/internal/domain/session"
)

// Selector names the indices a read targets. Exactly one form is used, in order:
// an index list, a chamber+version pair, or the deprecated per-chamber numbers.
type Selector struct {
	Index   string
	Chamber string
	Version string
	// Legacy maps a chamber name to a sitting number, e.g. lok_sabha -> 17.
	Legacy map[string]int
}

// Resolve returns the target index names. deprecated is true when only the
// legacy per-chamber form was supplied. allowed lists the accepted legacy chambers.
func (s Selector) Resolve(allowed []string) (names []string, deprecated bool, err error) {
	if s.Index != "" {
		names, err := session.ParseNames(s.Index)
		return names, false, err
	}

	if s.Chamber != "" || s.Version != "" {
		sess, err := session.New(s.Chamber, s.Version)
		if err != nil {
			return nil, false, err
		}
		return []string{sess.Name()}, false, nil
	}

	for _, chamber := range allowed {
		n, ok := s.Legacy[chamber]
		if !ok {
			continue
		}
		if n <= 0 {
			return nil, false, fmt.Errorf("%s must be a positive number", chamber)
		}
		sess, err := session.New(chamber, strconv.Itoa(n))
		if err != nil {
			return nil, false, err
		}
		names = append(names, sess.Name())
	}
	if len(names) == 0 {
		return nil, false, fmt.Errorf("index, chamber and version, or a legacy chamber selector is required")
	}
	return names, true, nil
}
