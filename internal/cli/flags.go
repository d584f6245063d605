package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/cronograma/internal/domain"
	"github.com/spf13/pflag"
)

// dateValue is a YYYY-MM-DD flag. It stays nil until set.
type dateValue struct {
	t **time.Time
}

var _ pflag.Value = dateValue{}

func newDateValue(p **time.Time) dateValue { return dateValue{t: p} }

func (d dateValue) String() string {
	if d.t == nil || *d.t == nil {
		return ""
	}
	return (*d.t).Format(domain.DateLayout)
}

func (d dateValue) Set(s string) error {
	t, err := domain.ParseDate(s)
	if err != nil {
		return err
	}
	*d.t = &t
	return nil
}

func (dateValue) Type() string { return "date" }

// instantValue accepts RFC 3339 or a bare date, read as midnight UTC.
type instantValue struct {
	t *time.Time
}

var _ pflag.Value = instantValue{}

func (v instantValue) String() string {
	if v.t == nil || v.t.IsZero() {
		return ""
	}
	return v.t.Format(time.RFC3339)
}

func (v instantValue) Set(s string) error {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		*v.t = t
		return nil
	}
	t, err := domain.ParseDate(s)
	if err != nil {
		return fmt.Errorf("expected RFC 3339 time or YYYY-MM-DD: %w", err)
	}
	*v.t = t
	return nil
}

func (instantValue) Type() string { return "time" }

// depTypeValue restricts a flag to the four dependency types.
type depTypeValue struct {
	t *domain.DependencyType
}

var _ pflag.Value = depTypeValue{}

func (v depTypeValue) String() string {
	if v.t == nil {
		return ""
	}
	return string(*v.t)
}

func (v depTypeValue) Set(s string) error {
	dt := domain.DependencyType(strings.ToUpper(strings.TrimSpace(s)))
	if !dt.Valid() {
		return fmt.Errorf("must be one of FS, SS, FF, SF")
	}
	*v.t = dt
	return nil
}

func (depTypeValue) Type() string { return "FS|SS|FF|SF" }

// subtaskStatusValue restricts a flag to the subtask statuses.
type subtaskStatusValue struct {
	s *domain.SubtaskStatus
}

var _ pflag.Value = subtaskStatusValue{}

func (v subtaskStatusValue) String() string {
	if v.s == nil {
		return ""
	}
	return string(*v.s)
}

func (v subtaskStatusValue) Set(s string) error {
	st := strings.ToLower(strings.TrimSpace(s))
	if !domain.ValidSubtaskStatuses[st] {
		return fmt.Errorf("must be one of pending, in_progress, done")
	}
	*v.s = domain.SubtaskStatus(st)
	return nil
}

func (subtaskStatusValue) Type() string { return "status" }

func floatIfChanged(fs *pflag.FlagSet, name string, v float64) *float64 {
	if !fs.Changed(name) {
		return nil
	}
	return &v
}

func intIfChanged(fs *pflag.FlagSet, name string, v int) *int {
	if !fs.Changed(name) {
		return nil
	}
	return &v
}

func boolIfChanged(fs *pflag.FlagSet, name string, v bool) *bool {
	if !fs.Changed(name) {
		return nil
	}
	return &v
}

func stringIfChanged(fs *pflag.FlagSet, name string, v string) *string {
	if !fs.Changed(name) {
		return nil
	}
	return &v
}
