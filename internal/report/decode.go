package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// MaxBatchBytes bounds a single uploaded batch.
const MaxBatchBytes = 8 << 20

// DecodeBatch reads either a parser result object or a bare JSON array of
// reports. matchID is the result's MatchID, or 0 for a bare array.
func DecodeBatch(r io.Reader) (matchID int64, reports []Report, err error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxBatchBytes+1))
	if err != nil {
		return 0, nil, fmt.Errorf("reading batch: %w", err)
	}
	if len(data) > MaxBatchBytes {
		return 0, nil, fmt.Errorf("%w: batch larger than %d bytes", ErrInvalidReport, MaxBatchBytes)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return 0, nil, fmt.Errorf("%w: empty body", ErrInvalidReport)
	}
	if data[0] == '[' {
		if err := json.Unmarshal(data, &reports); err != nil {
			return 0, nil, fmt.Errorf("%w: %w", ErrInvalidReport, err)
		}
		return 0, reports, nil
	}

	var res ParseResult
	if err := json.Unmarshal(data, &res); err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrInvalidReport, err)
	}
	reports = make([]Report, 0, len(res.Reports))
	for _, rep := range res.Reports {
		if rep != nil {
			reports = append(reports, *rep)
		}
	}
	return res.MatchID, reports, nil
}

// AssignMatch sets matchID on every report.
func AssignMatch(reports []Report, matchID int64) {
	for i := range reports {
		reports[i].MatchID = matchID
	}
}
