package normalizer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang-conciliation-service/internal/models"
	"golang-conciliation-service/pkg/logger"

	"github.com/shopspring/decimal"
)

// Config holds normalization options
type Config struct {
	// DefaultYear completes dd/mm dates that carry no year component
	DefaultYear int `json:"default_year"`
}

// DefaultConfig returns the default normalizer configuration
func DefaultConfig() *Config {
	return &Config{
		DefaultYear: 2025,
	}
}

// Validate validates the normalizer configuration
func (c *Config) Validate() error {
	if c.DefaultYear < 1990 || c.DefaultYear > 2100 {
		return fmt.Errorf("default year out of range: %d", c.DefaultYear)
	}
	return nil
}

// Normalizer canonicalizes dates, amounts and descriptions lifted from
// input documents. All methods are total: bad input yields ok=false,
// never a panic or an error.
type Normalizer struct {
	config *Config
	log    logger.Logger
}

// New creates a Normalizer with the given configuration
func New(config *Config) (*Normalizer, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Normalizer{
		config: config,
		log:    logger.GetGlobalLogger().WithComponent("normalizer"),
	}, nil
}

// DefaultYear returns the configured fallback year
func (n *Normalizer) DefaultYear() int {
	return n.config.DefaultYear
}

var accentReplacer = strings.NewReplacer(
	"Á", "A",
	"É", "E",
	"Í", "I",
	"Ó", "O",
	"Ú", "U",
	"Ü", "U",
)

// NormalizeText uppercases, folds Spanish accents and collapses runs of
// whitespace to single spaces. Used for descriptions, header matching
// and layout classification alike so that all comparisons agree.
func NormalizeText(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = accentReplacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// Description normalizes a movement description
func (n *Normalizer) Description(raw string) string {
	return NormalizeText(raw)
}

// Date canonicalizes a date string to dd/mm/yyyy. Inputs are day-first
// unless they start with a four-digit year (YYYY/MM/DD). Dates without
// a year take the configured default year.
func (n *Normalizer) Date(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}

	sep := "/"
	if !strings.Contains(s, "/") && strings.Contains(s, "-") {
		sep = "-"
	}
	parts := strings.Split(s, sep)

	nums := make([]int, 0, 3)
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return "", false
		}
		nums = append(nums, v)
	}

	var day, month, year int
	switch len(nums) {
	case 3:
		if len(parts[0]) == 4 {
			// YYYY/MM/DD, the one year-first form accepted
			year, month, day = nums[0], nums[1], nums[2]
		} else {
			day, month, year = nums[0], nums[1], nums[2]
			if len(parts[2]) == 2 {
				year += 2000
			}
		}
	case 2:
		day, month, year = nums[0], nums[1], n.config.DefaultYear
	default:
		return "", false
	}

	if !validDate(day, month, year) {
		return "", false
	}

	return fmt.Sprintf("%02d/%02d/%04d", day, month, year), true
}

func validDate(day, month, year int) bool {
	if year < 1900 || year > 2200 || month < 1 || month > 12 || day < 1 || day > 31 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Day() == day && int(t.Month()) == month && t.Year() == year
}

// Amount canonicalizes a monetary string to integer minor units.
// Currency signs, thousands separators and spaces are stripped;
// parentheses mean negative; fractions round half away from zero.
func (n *Normalizer) Amount(raw string) (int64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}

	negative := strings.Contains(s, "(") && strings.Contains(s, ")")

	cleaner := strings.NewReplacer(
		"$", "",
		",", "",
		"(", "",
		")", "",
		" ", "",
		"\u00a0", "",
	)
	s = cleaner.Replace(s)
	if s == "" || s == "-" {
		return 0, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	if negative {
		d = d.Abs().Neg()
	}

	// decimal.Round rounds half away from zero
	return d.Round(0).IntPart(), true
}

// Table normalizes a raw parser table into a MovementTable for the
// given origin. Rows whose date or amount cannot be canonicalized are
// dropped; the count of dropped rows is returned so callers can log
// the aggregate without per-row noise.
func (n *Normalizer) Table(raw *models.RawTable, origin models.Origin) (*models.MovementTable, int) {
	table := models.NewMovementTable(origin)
	if raw == nil {
		return table, 0
	}

	dropped := 0
	for _, row := range raw.Rows {
		date, ok := n.Date(row.Date)
		if !ok {
			dropped++
			continue
		}
		amount, ok := n.Amount(row.Amount)
		if !ok {
			dropped++
			continue
		}
		table.Append(models.NewMovement(date, n.Description(row.Description), amount))
	}

	if dropped > 0 {
		n.log.WithFields(logger.Fields{
			"origin":    origin,
			"rows_seen": raw.Len(),
			"rows_kept": table.Len(),
			"dropped":   dropped,
		}).Warn("Dropped rows that could not be normalized")
	}

	return table, dropped
}
