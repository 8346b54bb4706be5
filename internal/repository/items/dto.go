package items

import (
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/rankdex/internal/domain"
)

// Hash field names of one candidate item record.
const (
	fieldID        = "id"
	fieldTitle     = "title"
	fieldURL       = "url"
	fieldExcerpt   = "excerpt"
	fieldQuality   = "quality"
	fieldCreatedAt = "created_at" // unix milliseconds
)

func itemFromHash(fields map[string]string) (domain.CandidateItem, error) {
	if len(fields) == 0 {
		return domain.CandidateItem{}, fmt.Errorf("empty item hash")
	}

	item := domain.CandidateItem{
		ID:          fields[fieldID],
		Title:       fields[fieldTitle],
		URL:         fields[fieldURL],
		BodyExcerpt: fields[fieldExcerpt],
	}

	if raw, ok := fields[fieldQuality]; ok {
		q, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.CandidateItem{}, fmt.Errorf("parse quality %q: %w", raw, err)
		}
		item.Quality = q
	}

	if raw, ok := fields[fieldCreatedAt]; ok {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return domain.CandidateItem{}, fmt.Errorf("parse created_at %q: %w", raw, err)
		}
		item.CreatedAt = time.UnixMilli(ms).UTC()
	}

	return item, nil
}
