// Package temporal разбирает дату и время из распознанной речи
package temporal

import (
	"regexp"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

type dateLayout struct {
	value   string
	hasYear bool
}

// Точные форматы проверяются раньше свободного разбора
var dateLayouts = []dateLayout{
	{"02.01.2006", true},
	{"2.1.2006", true},
	{"02-01-2006", true},
	{"2-1-2006", true},
	{"02/01/2006", true},
	{"2/1/2006", true},
	{"2006-01-02", true},
	{"2006/01/02", true},
	{"2 January 2006", true},
	{"January 2 2006", true},
	{"2 January", false},
	{"January 2", false},
	{"2/1", false},
	{"2-1", false},
}

var timeLayouts = []string{
	"3:04 PM",
	"3:04PM",
	"3 PM",
	"3PM",
	"15:04",
}

var (
	ordinalRe  = regexp.MustCompile(`\b(\d{1,2})(ST|ND|RD|TH)\b`)
	meridiemRe = regexp.MustCompile(`\b([AP])\.?\s?M\.?`)
	spacesRe   = regexp.MustCompile(`\s+`)

	// совпадение when, в котором есть только время суток
	clockOnlyRe = regexp.MustCompile(`(?i)^\d{1,2}(\s*[:.\-]\s*\d{2})?\s*([ap]\.?\s?m\.?)?$`)
	// числовая дата, которую when принимает за время ("14-04")
	numericDateRe = regexp.MustCompile(`\d\s*[-/]\s*\d`)
	monthRe       = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\b`)
	yearRe        = regexp.MustCompile(`\b\d{4}\b`)
)

// Слова, которые можно оставить вокруг распознанной даты или времени
var fillers = map[string]bool{
	"on": true, "the": true, "at": true, "for": true, "of": true,
	"please": true, "around": true, "about": true, "by": true,
}

// Date - разобранный день. YearImplied означает, что год не был назван и подставлен текущий.
type Date struct {
	Day         time.Time
	YearImplied bool
}

type Parser struct {
	w *when.Parser
}

func NewParser() *Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &Parser{w: w}
}

// ParseDate возвращает полночь названного дня в часовом поясе now.
// Фраза, в которой распознано только время суток, датой не считается.
func (p *Parser) ParseDate(text string, now time.Time) (Date, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Date{}, false
	}

	loc := now.Location()
	s := normalize(text)
	for _, l := range dateLayouts {
		t, err := time.ParseInLocation(l.value, s, loc)
		if err != nil {
			continue
		}
		if !l.hasYear {
			return Date{Day: time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), YearImplied: true}, true
		}
		return Date{Day: t}, true
	}

	r, ok := p.fallback(text, now)
	if !ok || clockOnlyRe.MatchString(strings.TrimSpace(r.Text)) {
		return Date{}, false
	}

	y, m, d := r.Time.In(loc).Date()
	return Date{
		Day:         time.Date(y, m, d, 0, 0, 0, 0, loc),
		YearImplied: monthRe.MatchString(r.Text) && !yearRe.MatchString(r.Text),
	}, true
}

// ParseTime возвращает сегодняшний день в часовом поясе now с названным временем суток
func (p *Parser) ParseTime(text string, now time.Time) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}

	loc := now.Location()
	y, m, d := now.Date()

	s := normalize(text)
	for _, l := range timeLayouts {
		t, err := time.ParseInLocation(l, s, loc)
		if err == nil {
			return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, loc), true
		}
	}

	r, ok := p.fallback(text, now)
	if !ok || numericDateRe.MatchString(r.Text) {
		return time.Time{}, false
	}

	t := r.Time.In(loc)
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, loc), true
}

// fallback принимает разбор when, только если совпадение покрывает всю фразу, кроме служебных слов
func (p *Parser) fallback(text string, now time.Time) (*when.Result, bool) {
	r, err := p.w.Parse(text, now)
	if err != nil || r == nil {
		return nil, false
	}

	end := r.Index + len(r.Text)
	if r.Index < 0 || end > len(text) {
		return nil, false
	}

	rest := text[:r.Index] + " " + text[end:]
	for _, word := range strings.Fields(strings.ToLower(rest)) {
		if word = strings.Trim(word, ".,!?"); word != "" && !fillers[word] {
			return nil, false
		}
	}

	return r, true
}

// normalize приводит "14th of april, 11 a.m." к виду, понятному time.Parse
func normalize(text string) string {
	s := strings.ToUpper(strings.TrimSpace(text))
	s = strings.Trim(s, " .!?")
	s = strings.ReplaceAll(s, ",", " ")
	s = strings.ReplaceAll(s, " OF ", " ")
	s = ordinalRe.ReplaceAllString(s, "$1")
	s = meridiemRe.ReplaceAllString(s, "${1}M")
	s = spacesRe.ReplaceAllString(s, " ")
	return s
}
