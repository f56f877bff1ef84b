package service

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"safeher/internal/domain"
	"safeher/pkg/e"
	"safeher/pkg/validator"
)

// maxEpochMillis is the largest offset from the epoch a JavaScript Date can hold.
const maxEpochMillis = 8.64e15

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ValidateCreate turns a raw ingestion payload into a pending alert ready to be
// stored. It has no side effects.
func ValidateCreate(req domain.CreateAlertRequest, now time.Time) (*domain.Alert, error) {
	userID, hasUser := stringValue(req.UserID)
	source := ""
	if req.Source != nil {
		source = strings.TrimSpace(*req.Source)
	}

	var missing []string
	if !hasUser || userID == "" {
		missing = append(missing, "userId")
	}
	if req.Lat == nil {
		missing = append(missing, "lat")
	}
	if req.Lng == nil {
		missing = append(missing, "lng")
	}
	if source == "" {
		missing = append(missing, "source")
	}
	if len(missing) > 0 {
		return nil, e.Validation(e.ErrMissingField, strings.Join(missing, ", "))
	}
	if strings.ContainsRune(userID, 0) {
		return nil, e.Validation(e.ErrInvalidText, "userId")
	}

	lat, ok := numberValue(req.Lat)
	if !ok || lat < -90 || lat > 90 {
		return nil, e.Validation(e.ErrInvalidLatitude, "")
	}
	lng, ok := numberValue(req.Lng)
	if !ok || lng < -180 || lng > 180 {
		return nil, e.Validation(e.ErrInvalidLongitude, "")
	}

	src, ok := domain.ParseSource(source)
	if !ok {
		return nil, e.Validation(e.ErrInvalidSource, source)
	}

	notes, err := normalizeNotes(req.Notes)
	if err != nil {
		return nil, err
	}

	alert := &domain.Alert{
		UserID:    userID,
		Lat:       lat,
		Lng:       lng,
		Source:    src,
		Timestamp: parseTimestamp(req.Timestamp, now),
		Status:    domain.StatusPending,
		Notes:     notes,
	}

	if err := validator.ValidateStruct(alert); err != nil {
		return nil, e.Validation(err, "")
	}

	return alert, nil
}

// validateUpdate returns the fields an operator actually supplied. Empty
// strings count as not supplied.
func validateUpdate(req domain.UpdateAlertRequest) (*domain.Status, *string, error) {
	var status *domain.Status
	if req.Status != nil {
		if raw := strings.TrimSpace(*req.Status); raw != "" {
			st, ok := domain.ParseStatus(raw)
			if !ok {
				return nil, nil, e.Validation(e.ErrInvalidStatus, raw)
			}
			status = &st
		}
	}

	notes, err := normalizeNotes(req.Notes)
	if err != nil {
		return nil, nil, err
	}

	return status, notes, nil
}

func normalizeNotes(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	n := strings.TrimSpace(*raw)
	if n == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(n) > domain.MaxNotesLength {
		return nil, e.Validation(e.ErrNotesTooLong, "")
	}
	if strings.ContainsRune(n, 0) {
		return nil, e.Validation(e.ErrInvalidText, "notes")
	}
	return &n, nil
}

func stringValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case json.Number:
		return t.String(), true
	case int:
		return strconv.Itoa(t), true
	}
	return "", false
}

func numberValue(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseTimestamp accepts RFC 3339 strings, plain dates and epoch milliseconds.
// Anything else falls back to now.
func parseTimestamp(v any, now time.Time) time.Time {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UTC()
			}
		}
	case float64:
		if !math.IsNaN(t) && math.Abs(t) <= maxEpochMillis {
			return time.UnixMilli(int64(t)).UTC()
		}
	case time.Time:
		if !t.IsZero() {
			return t.UTC()
		}
	}
	return now.UTC()
}
