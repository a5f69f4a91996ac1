package notionsync

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jomei/notionapi"
)

// Period is a labelled calendar interval. End equals Start for days.
type Period struct {
	Label string
	Start civil.Date
	End   civil.Date
}

// CalendarPeriods are the four buckets a transaction date falls into.
type CalendarPeriods struct {
	Day   Period
	Week  Period
	Month Period
	Year  Period
}

// CalendarBuckets holds the page ids of the resolved calendar buckets.
type CalendarBuckets struct {
	Day   string
	Week  string
	Month string
	Year  string
}

// PeriodsFor computes the day, ISO week, month and year periods containing t.
func PeriodsFor(t time.Time) CalendarPeriods {
	day := civil.DateOf(t)

	isoYear, isoWeek := t.ISOWeek()
	sinceMonday := (int(t.Weekday()) + 6) % 7
	monday := day.AddDays(-sinceMonday)

	monthStart := civil.Date{Year: day.Year, Month: day.Month, Day: 1}
	monthEnd := civil.DateOf(time.Date(day.Year, day.Month+1, 0, 0, 0, 0, 0, time.UTC))

	return CalendarPeriods{
		Day: Period{
			Label: fmt.Sprintf("%d年%02d月%02d日", day.Year, int(day.Month), day.Day),
			Start: day,
			End:   day,
		},
		Week: Period{
			Label: fmt.Sprintf("%d年第%d周", isoYear, isoWeek),
			Start: monday,
			End:   monday.AddDays(6),
		},
		Month: Period{
			Label: fmt.Sprintf("%d年%d月", day.Year, int(day.Month)),
			Start: monthStart,
			End:   monthEnd,
		},
		Year: Period{
			Label: fmt.Sprintf("%d", day.Year),
			Start: civil.Date{Year: day.Year, Month: time.January, Day: 1},
			End:   civil.Date{Year: day.Year, Month: time.December, Day: 31},
		},
	}
}

// ResolveCalendarBuckets finds or creates the day, week, month and year pages for t.
func (s *Syncer) ResolveCalendarBuckets(ctx context.Context, t time.Time) (CalendarBuckets, error) {
	periods := PeriodsFor(t)

	var (
		buckets CalendarBuckets
		err     error
	)

	buckets.Year, err = s.resolver.Resolve(ctx, s.dbs.Year, periods.Year.Label, IconCalendar,
		periodProperties(periods.Year, true))
	if err != nil {
		return CalendarBuckets{}, fmt.Errorf("ResolveCalendarBuckets: year: %w", err)
	}

	buckets.Month, err = s.resolver.Resolve(ctx, s.dbs.Month, periods.Month.Label, IconCalendar,
		periodProperties(periods.Month, true))
	if err != nil {
		return CalendarBuckets{}, fmt.Errorf("ResolveCalendarBuckets: month: %w", err)
	}

	buckets.Week, err = s.resolver.Resolve(ctx, s.dbs.Week, periods.Week.Label, IconCalendar,
		periodProperties(periods.Week, true))
	if err != nil {
		return CalendarBuckets{}, fmt.Errorf("ResolveCalendarBuckets: week: %w", err)
	}

	buckets.Day, err = s.resolver.Resolve(ctx, s.dbs.Day, periods.Day.Label, IconCalendar,
		periodProperties(periods.Day, false))
	if err != nil {
		return CalendarBuckets{}, fmt.Errorf("ResolveCalendarBuckets: day: %w", err)
	}

	return buckets, nil
}

// DateRangeProperty is a date property holding calendar dates without a time
// of day. notionapi.Date always serializes a full timestamp.
type DateRangeProperty struct {
	ID   notionapi.ObjectID     `json:"id,omitempty"`
	Type notionapi.PropertyType `json:"type,omitempty"`
	Date DateRange              `json:"date"`
}

// DateRange is a Notion date value; End is omitted for single days.
type DateRange struct {
	Start civil.Date  `json:"start"`
	End   *civil.Date `json:"end,omitempty"`
}

// GetID implements notionapi.Property.
func (p DateRangeProperty) GetID() string {
	return string(p.ID)
}

// GetType implements notionapi.Property.
func (p DateRangeProperty) GetType() notionapi.PropertyType {
	return notionapi.PropertyTypeDate
}

func periodProperties(p Period, withEnd bool) notionapi.Properties {
	r := DateRange{Start: p.Start}
	if withEnd {
		end := p.End
		r.End = &end
	}
	return notionapi.Properties{
		PropDate: DateRangeProperty{Type: notionapi.PropertyTypeDate, Date: r},
	}
}
