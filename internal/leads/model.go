package leads

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/parto-platform/internal/apperr"
)

// State is the lifecycle position of a lead.
type State string

const (
	StateNew       State = "NEW"
	StateActive    State = "ACTIVE"
	StateFulfilled State = "FULFILLED"
	StateSLABreach State = "SLA_BREACH"
	StateDropped   State = "DROPPED"
)

// IsTerminal reports whether no further transitions are allowed.
func (s State) IsTerminal() bool {
	switch s {
	case StateFulfilled, StateSLABreach, StateDropped:
		return true
	}
	return false
}

// IsOpen reports whether the lead is still visible in supplier feeds.
func (s State) IsOpen() bool {
	return s == StateNew || s == StateActive
}

// CanTransition reports whether from → to is allowed. Staying in the same
// state is allowed and treated as a no-op by callers.
func CanTransition(from, to State) bool {
	if from == to {
		return true
	}
	if from.IsTerminal() || to == StateNew {
		return false
	}
	switch to {
	case StateActive:
		return from == StateNew
	case StateFulfilled, StateSLABreach, StateDropped:
		return from.IsOpen()
	}
	return false
}

// Condition is the part condition the buyer will accept.
type Condition string

const (
	ConditionNew          Condition = "NEW"
	ConditionUsed         Condition = "USED"
	ConditionDoesntMatter Condition = "DOESNT_MATTER"
)

// ParseCondition accepts both the intake form labels and the stored values.
func ParseCondition(raw string) (Condition, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "new":
		return ConditionNew, true
	case "used":
		return ConditionUsed, true
	case "doesn't matter", "doesnt matter", "doesnt_matter", "any":
		return ConditionDoesntMatter, true
	}
	return "", false
}

// Buyer is the person who posted a request, keyed by phone number.
type Buyer struct {
	ID          string    `json:"id"`
	PhoneNumber string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// Lead represents a buyer's parts request.
type Lead struct {
	ID                string     `json:"id"`
	BuyerID           string     `json:"buyer_id"`
	BuyerPhone        string     `json:"-"`
	VehicleMake       string     `json:"vehicle_make"`
	VehicleModel      string     `json:"vehicle_model"`
	VehicleYear       int        `json:"vehicle_year"`
	RequestedParts    []string   `json:"requested_parts"`
	Condition         Condition  `json:"condition"`
	LocationText      string     `json:"location_text"`
	State             State      `json:"state"`
	CreatedAt         time.Time  `json:"created_at"`
	SLADeadline       time.Time  `json:"sla_deadline"`
	FirstEngagementAt *time.Time `json:"first_engagement_at,omitempty"`
}

// Expired reports whether the lead can no longer be unmasked: it was swept,
// dropped, or its deadline has passed.
func (l *Lead) Expired(now time.Time) bool {
	if l.State == StateSLABreach || l.State == StateDropped {
		return true
	}
	return l.State.IsOpen() && now.After(l.SLADeadline)
}

func (l *Lead) clone() *Lead {
	cp := *l
	cp.RequestedParts = append([]string(nil), l.RequestedParts...)
	if l.FirstEngagementAt != nil {
		t := *l.FirstEngagementAt
		cp.FirstEngagementAt = &t
	}
	return &cp
}

// Year accepts either a JSON number or a numeric string.
type Year string

func (y *Year) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*y = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*y = Year(strings.TrimSpace(s))
		return nil
	}
	*y = Year(raw)
	return nil
}

// CreateLeadRequest represents the request body for creating a lead
type CreateLeadRequest struct {
	Make      string   `json:"make"`
	Model     string   `json:"model"`
	Year      Year     `json:"year"`
	Parts     []string `json:"parts"`
	Condition string   `json:"condition"`
	Location  string   `json:"location"`
	Phone     string   `json:"phone"`
}

var (
	mobilePattern = regexp.MustCompile(`^[6-9]\d{9}$`)
	yearPattern   = regexp.MustCompile(`^\d{4}$`)
)

const minVehicleYear = 1950

// NormalizePhone strips spacing and the +91 country code.
func NormalizePhone(raw string) string {
	p := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(raw))
	p = strings.TrimPrefix(p, "+91")
	if len(p) == 12 && strings.HasPrefix(p, "91") {
		p = p[2:]
	}
	return p
}

// Validate checks the request against the intake rules and returns an
// apperr validation error carrying one message per failing field.
func (r *CreateLeadRequest) Validate(now time.Time) error {
	details := map[string]string{}

	if strings.TrimSpace(r.Make) == "" {
		details["make"] = "make is required"
	}
	if strings.TrimSpace(r.Model) == "" {
		details["model"] = "model is required"
	}

	year := strings.TrimSpace(string(r.Year))
	if !yearPattern.MatchString(year) {
		details["year"] = "year must be a 4-digit number"
	} else if n, _ := strconv.Atoi(year); n < minVehicleYear || n > now.Year()+1 {
		details["year"] = fmt.Sprintf("year must be between %d and %d", minVehicleYear, now.Year()+1)
	}

	if len(r.cleanParts()) == 0 {
		details["parts"] = "at least one part is required"
	}
	if _, ok := ParseCondition(r.Condition); !ok {
		details["condition"] = "condition must be New, Used or Doesn't matter"
	}

	loc := []rune(strings.TrimSpace(r.Location))
	if len(loc) < 2 || len(loc) > 50 {
		details["location"] = "location must be between 2 and 50 characters"
	}
	if !mobilePattern.MatchString(NormalizePhone(r.Phone)) {
		details["phone"] = "phone must be a valid 10-digit mobile number"
	}

	if len(details) > 0 {
		return apperr.Validation(details)
	}
	return nil
}

func (r *CreateLeadRequest) cleanParts() []string {
	parts := make([]string, 0, len(r.Parts))
	for _, p := range r.Parts {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// toLead builds an unsaved lead from a validated request.
func (r *CreateLeadRequest) toLead(id string, now time.Time, slaWindow time.Duration) *Lead {
	year, _ := strconv.Atoi(strings.TrimSpace(string(r.Year)))
	cond, _ := ParseCondition(r.Condition)
	now = now.UTC()
	return &Lead{
		ID:             id,
		BuyerPhone:     NormalizePhone(r.Phone),
		VehicleMake:    strings.TrimSpace(r.Make),
		VehicleModel:   strings.TrimSpace(r.Model),
		VehicleYear:    year,
		RequestedParts: r.cleanParts(),
		Condition:      cond,
		LocationText:   strings.TrimSpace(r.Location),
		State:          StateNew,
		CreatedAt:      now,
		SLADeadline:    now.Add(slaWindow),
	}
}
