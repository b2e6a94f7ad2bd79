package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dietmate/backend/internal/models"
	"gorm.io/gorm"
)

// ComparisonService produces the peer-gap report: a deterministic,
// rule-based comparison of a user's period stats against their goal and
// the group's top rankers. No LLM call and no persistence on this path.
type ComparisonService struct {
	db     *gorm.DB
	groups *GroupService
}

func NewComparisonService(db *gorm.DB) *ComparisonService {
	return &ComparisonService{db: db, groups: NewGroupService(db)}
}

// GapReport bundles the inputs and the generated narrative.
type GapReport struct {
	GroupID    uint         `json:"group_id"`
	PeriodType string       `json:"period_type"`
	StartDate  time.Time    `json:"start_date"`
	EndDate    time.Time    `json:"end_date"`
	Self       PeriodStats  `json:"self"`
	Rankers    []RankerStat `json:"rankers"`
	Goal       *models.Goal `json:"goal"`
	Narrative  string       `json:"narrative"`
}

// AnalyzeGap gathers the three stat bundles and builds the narrative.
// periodType is weekly ([now-7d, now]) or monthly ([now-30d, now]).
func (s *ComparisonService) AnalyzeGap(userID, groupID uint, periodType string) (*GapReport, error) {
	var days int
	switch periodType {
	case models.ReportWeekly:
		days = 7
	case models.ReportMonthly:
		days = 30
	default:
		return nil, ErrInvalidReportPeriod
	}

	if _, err := s.groups.GetByID(groupID); err != nil {
		return nil, err
	}
	if _, err := s.groups.MembershipFor(groupID, userID); err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return nil, ErrNotGroupMember
		}
		return nil, err
	}

	end := time.Now()
	start := end.AddDate(0, 0, -days)

	self := collectPeriodStats(s.db, userID, start, end)

	rankers, err := s.groups.rankerStats(groupID, start, end, 3)
	if err != nil {
		return nil, err
	}

	// Goal is optional input; absent means all-zero targets.
	var goal models.Goal
	if err := s.db.Where("user_id = ?", userID).First(&goal).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		goal = models.Goal{UserID: userID}
	}

	return &GapReport{
		GroupID:    groupID,
		PeriodType: periodType,
		StartDate:  start,
		EndDate:    end,
		Self:       self,
		Rankers:    rankers,
		Goal:       &goal,
		Narrative:  BuildGapNarrative(self, rankers, &goal),
	}, nil
}

// BuildGapNarrative is the pure rule engine behind the gap report.
// The goal clause is omitted entirely when no calorie goal is set, so a
// zero baseline never fires a false warning.
func BuildGapNarrative(self PeriodStats, rankers []RankerStat, goal *models.Goal) string {
	var clauses []string

	if goal != nil && goal.Calories > 0 {
		switch {
		case self.AvgCalories > goal.Calories*1.15:
			clauses = append(clauses, fmt.Sprintf(
				"You averaged %.0f kcal per meal, more than 15%% above your %.0f kcal goal. Try lighter dinners or smaller portions.",
				self.AvgCalories, goal.Calories))
		case self.AvgCalories < goal.Calories*0.8:
			clauses = append(clauses, fmt.Sprintf(
				"You averaged %.0f kcal per meal, well below your %.0f kcal goal. Eating too little can backfire; aim closer to your target.",
				self.AvgCalories, goal.Calories))
		default:
			clauses = append(clauses, fmt.Sprintf(
				"Nice work staying near your calorie goal: %.0f kcal per meal against a %.0f kcal target.",
				self.AvgCalories, goal.Calories))
		}
	}

	rankerScore, rankerProtein := rankerAverages(rankers)
	if rankerScore-self.AvgScore > 10 {
		clause := fmt.Sprintf(
			"The top members of your group average a meal score of %.1f while yours is %.1f.",
			rankerScore, self.AvgScore)
		if rankerProtein-self.AvgProtein > 15 {
			clause += fmt.Sprintf(
				" The biggest difference is protein: they average %.0fg per meal against your %.0fg.",
				rankerProtein, self.AvgProtein)
		}
		clauses = append(clauses, clause)
	} else {
		clauses = append(clauses, fmt.Sprintf(
			"Your meal score of %.1f holds up well against the group's top members. Keep it up!",
			self.AvgScore))
	}

	return strings.Join(clauses, "\n")
}

func rankerAverages(rankers []RankerStat) (avgScore, avgProtein float64) {
	if len(rankers) == 0 {
		return 0, 0
	}
	for _, r := range rankers {
		avgScore += r.AvgScore
		avgProtein += r.AvgProtein
	}
	n := float64(len(rankers))
	return avgScore / n, avgProtein / n
}
