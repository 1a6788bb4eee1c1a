package usecase

import (
	"strings"
	"time"

	"resume-portfolio-backend/internal/domain"
)

const hoursPerYear = 365 * 24

// experienceYears sums the duration of all experience entries in years. An
// entry without an end date is ongoing and is measured up to now, which makes
// the result time-dependent; now is therefore an explicit argument.
func experienceYears(entries []domain.Experience, now time.Time) float64 {
	var total float64
	for _, e := range entries {
		end := now
		if e.EndDate != nil {
			end = *e.EndDate
		}
		total += end.Sub(e.StartDate).Hours() / hoursPerYear
	}
	return total
}

// deriveCandidate fills in the query-time derived fields of a candidate.
func deriveCandidate(c *domain.Candidate, now time.Time) {
	c.SkillsCount = len(c.Skills)
	c.ProjectsCount = len(c.Projects)
	c.CertificatesCount = len(c.Certificates)
	c.ExperienceYears = experienceYears(c.Experiences, now)

	if len(c.Skills) > 0 {
		var sum float64
		for _, s := range c.Skills {
			sum += float64(s.Proficiency)
		}
		c.AvgSkillProficiency = sum / float64(len(c.Skills))
	} else {
		c.AvgSkillProficiency = 0
	}
}

// matchesSkillName reports whether name equals any of the requested skill
// names, ignoring case.
func matchesSkillName(name string, requested []string) bool {
	for _, r := range requested {
		if strings.EqualFold(name, strings.TrimSpace(r)) {
			return true
		}
	}
	return false
}

// skillMatchCount counts candidate skills whose name matches one of the
// requested skills.
func skillMatchCount(skills []domain.Skill, requested []string) int {
	n := 0
	for _, s := range skills {
		if matchesSkillName(s.Name, requested) {
			n++
		}
	}
	return n
}

// hasQualifyingSkill reports whether the candidate has at least one skill
// that matches a requested name and meets the proficiency threshold. The
// threshold applies to the matched skill, not to the candidate's whole set.
func hasQualifyingSkill(skills []domain.Skill, requested []string, minProficiency int) bool {
	for _, s := range skills {
		if s.Proficiency >= minProficiency && matchesSkillName(s.Name, requested) {
			return true
		}
	}
	return false
}

// relevanceScore computes the composite ranking score for a candidate whose
// derived fields are already populated. The score has no absolute meaning;
// it is only used for ordering within one result set.
//
// With a skill filter the terms are weighted to a nominal 0-100 range:
// skill match 40, average proficiency 30, experience 20, completeness 10.
// Without a filter the formula is uncapped since only relative order matters.
func relevanceScore(c domain.Candidate, requestedSkills []string) float64 {
	cappedYears := c.ExperienceYears
	if cappedYears > 10 {
		cappedYears = 10
	}

	if len(requestedSkills) == 0 {
		return c.AvgSkillProficiency*4 +
			cappedYears*3 +
			float64(c.SkillsCount)*2 +
			float64(c.ProjectsCount) +
			float64(c.CertificatesCount)
	}

	matched := skillMatchCount(c.Skills, requestedSkills)
	score := float64(matched) / float64(len(requestedSkills)) * 40
	score += c.AvgSkillProficiency * 3
	score += cappedYears * 2
	score += completenessScore(c)
	return score
}

// completenessScore awards up to 10 points for a filled-out profile.
func completenessScore(c domain.Candidate) float64 {
	var pts float64
	if c.Portfolio != nil && c.Portfolio.Bio != "" {
		pts += 2
	}
	if c.Portfolio != nil && c.Portfolio.JobTitle != "" {
		pts += 2
	}
	if c.ProjectsCount > 0 {
		pts += 3
	}
	if c.CertificatesCount > 0 {
		pts += 3
	}
	return pts
}
