package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"resume-portfolio-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

type candidateRepo struct {
	db *pgxpool.Pool
}

// NewCandidateRepository creates the candidate read-model repository.
func NewCandidateRepository(db *pgxpool.Pool) domain.CandidateRepository {
	return &candidateRepo{db: db}
}

// ListJoined loads every user together with its portfolio, skill, experience,
// project and certificate collections and composes the denormalized read
// model. Derived fields are left zero; they are computed above this layer.
func (r *candidateRepo) ListJoined(ctx context.Context) ([]domain.Candidate, error) {
	users, err := r.listUsers(ctx)
	if err != nil {
		return nil, err
	}

	portfolios, err := r.loadPortfolios(ctx, "")
	if err != nil {
		return nil, err
	}
	skills, err := r.loadSkills(ctx, "")
	if err != nil {
		return nil, err
	}
	experiences, err := r.loadExperiences(ctx, "")
	if err != nil {
		return nil, err
	}
	projects, err := r.loadProjects(ctx, "")
	if err != nil {
		return nil, err
	}
	certificates, err := r.loadCertificates(ctx, "")
	if err != nil {
		return nil, err
	}

	for i := range users {
		attach(&users[i], portfolios, skills, experiences, projects, certificates)
	}
	return users, nil
}

// GetJoinedByID loads one user's full joined view. Returns nil, nil when the
// id is unknown.
func (r *candidateRepo) GetJoinedByID(ctx context.Context, id string) (*domain.Candidate, error) {
	query := `
		SELECT id, username, display_name, email, COALESCE(profile_image, ''), created_at
		FROM users WHERE id = $1`

	var c domain.Candidate
	err := r.db.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Username, &c.DisplayName, &c.Email, &c.ProfileImage, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("user query failed: %w", err)
	}

	portfolios, err := r.loadPortfolios(ctx, id)
	if err != nil {
		return nil, err
	}
	skills, err := r.loadSkills(ctx, id)
	if err != nil {
		return nil, err
	}
	experiences, err := r.loadExperiences(ctx, id)
	if err != nil {
		return nil, err
	}
	projects, err := r.loadProjects(ctx, id)
	if err != nil {
		return nil, err
	}
	certificates, err := r.loadCertificates(ctx, id)
	if err != nil {
		return nil, err
	}

	attach(&c, portfolios, skills, experiences, projects, certificates)
	return &c, nil
}

// SkillFacets aggregates distinct skill names system-wide by occurrence,
// ties broken alphabetically.
func (r *candidateRepo) SkillFacets(ctx context.Context, limit int) ([]domain.SkillFacet, error) {
	query := `
		SELECT name, MIN(category) AS category, COUNT(*) AS count
		FROM skills
		GROUP BY name
		ORDER BY count DESC, name ASC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("skill facet query failed: %w", err)
	}
	defer rows.Close()

	var facets []domain.SkillFacet
	for rows.Next() {
		var f domain.SkillFacet
		if err := rows.Scan(&f.Name, &f.Category, &f.Count); err != nil {
			return nil, err
		}
		facets = append(facets, f)
	}
	return facets, rows.Err()
}

// CategoryFacets counts skill rows per category, most common first.
func (r *candidateRepo) CategoryFacets(ctx context.Context) ([]domain.CategoryCount, error) {
	query := `
		SELECT category, COUNT(*) AS count
		FROM skills
		GROUP BY category
		ORDER BY count DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("category facet query failed: %w", err)
	}
	defer rows.Close()

	var counts []domain.CategoryCount
	for rows.Next() {
		var c domain.CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func (r *candidateRepo) CountUsers(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return 0, fmt.Errorf("user count query failed: %w", err)
	}
	return total, nil
}

func (r *candidateRepo) listUsers(ctx context.Context) ([]domain.Candidate, error) {
	query := `
		SELECT id, username, display_name, email, COALESCE(profile_image, ''), created_at
		FROM users
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("user query failed: %w", err)
	}
	defer rows.Close()

	var users []domain.Candidate
	for rows.Next() {
		var c domain.Candidate
		if err := rows.Scan(&c.ID, &c.Username, &c.DisplayName, &c.Email, &c.ProfileImage, &c.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, c)
	}
	return users, rows.Err()
}

// userScope appends a user filter when userID is non-empty; the child
// loaders share their query shape between the list and single-user paths.
func userScope(base string, userID string) (string, []interface{}) {
	if userID == "" {
		return base, nil
	}
	return base + " WHERE user_id = $1", []interface{}{userID}
}

func (r *candidateRepo) loadPortfolios(ctx context.Context, userID string) (map[string]*domain.Portfolio, error) {
	query, args := userScope(`
		SELECT user_id, COALESCE(job_title, ''), COALESCE(location, ''), COALESCE(bio, ''),
		       COALESCE(availability, ''), COALESCE(years_of_experience, 0), COALESCE(social_links, '{}')
		FROM portfolio_details`, userID)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("portfolio query failed: %w", err)
	}
	defer rows.Close()

	portfolios := map[string]*domain.Portfolio{}
	for rows.Next() {
		var uid string
		var p domain.Portfolio
		var links []byte
		if err := rows.Scan(&uid, &p.JobTitle, &p.Location, &p.Bio, &p.Availability, &p.YearsOfExperience, &links); err != nil {
			return nil, err
		}
		if len(links) > 0 {
			_ = json.Unmarshal(links, &p.SocialLinks)
		}
		portfolios[uid] = &p
	}
	return portfolios, rows.Err()
}

func (r *candidateRepo) loadSkills(ctx context.Context, userID string) (map[string][]domain.Skill, error) {
	query, args := userScope(`
		SELECT user_id, name, category, proficiency, COALESCE(icon, ''), is_featured
		FROM skills`, userID)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("skill query failed: %w", err)
	}
	defer rows.Close()

	skills := map[string][]domain.Skill{}
	for rows.Next() {
		var uid string
		var s domain.Skill
		if err := rows.Scan(&uid, &s.Name, &s.Category, &s.Proficiency, &s.Icon, &s.IsFeatured); err != nil {
			return nil, err
		}
		skills[uid] = append(skills[uid], s)
	}
	return skills, rows.Err()
}

func (r *candidateRepo) loadExperiences(ctx context.Context, userID string) (map[string][]domain.Experience, error) {
	query, args := userScope(`
		SELECT user_id, company, position, start_date, end_date, COALESCE(description, '')
		FROM experiences`, userID)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("experience query failed: %w", err)
	}
	defer rows.Close()

	experiences := map[string][]domain.Experience{}
	for rows.Next() {
		var uid string
		var e domain.Experience
		if err := rows.Scan(&uid, &e.Company, &e.Position, &e.StartDate, &e.EndDate, &e.Description); err != nil {
			return nil, err
		}
		experiences[uid] = append(experiences[uid], e)
	}
	return experiences, rows.Err()
}

func (r *candidateRepo) loadProjects(ctx context.Context, userID string) (map[string][]domain.Project, error) {
	query, args := userScope(`
		SELECT user_id, title, COALESCE(description, ''), technologies,
		       COALESCE(github_url, ''), COALESCE(live_url, '')
		FROM projects`, userID)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("project query failed: %w", err)
	}
	defer rows.Close()

	projects := map[string][]domain.Project{}
	for rows.Next() {
		var uid string
		var p domain.Project
		var technologies []string
		if err := rows.Scan(&uid, &p.Title, &p.Description, pq.Array(&technologies), &p.GithubURL, &p.LiveURL); err != nil {
			return nil, err
		}
		p.Technologies = technologies
		projects[uid] = append(projects[uid], p)
	}
	return projects, rows.Err()
}

func (r *candidateRepo) loadCertificates(ctx context.Context, userID string) (map[string][]domain.Certificate, error) {
	query, args := userScope(`
		SELECT user_id, title, issuer, issue_date, COALESCE(credential_url, '')
		FROM certificates`, userID)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("certificate query failed: %w", err)
	}
	defer rows.Close()

	certificates := map[string][]domain.Certificate{}
	for rows.Next() {
		var uid string
		var c domain.Certificate
		if err := rows.Scan(&uid, &c.Title, &c.Issuer, &c.IssueDate, &c.CredentialURL); err != nil {
			return nil, err
		}
		certificates[uid] = append(certificates[uid], c)
	}
	return certificates, rows.Err()
}

func attach(
	c *domain.Candidate,
	portfolios map[string]*domain.Portfolio,
	skills map[string][]domain.Skill,
	experiences map[string][]domain.Experience,
	projects map[string][]domain.Project,
	certificates map[string][]domain.Certificate,
) {
	c.Portfolio = portfolios[c.ID]
	c.Skills = skills[c.ID]
	c.Experiences = experiences[c.ID]
	c.Projects = projects[c.ID]
	c.Certificates = certificates[c.ID]

	if c.Skills == nil {
		c.Skills = []domain.Skill{}
	}
	if c.Experiences == nil {
		c.Experiences = []domain.Experience{}
	}
	if c.Projects == nil {
		c.Projects = []domain.Project{}
	}
	if c.Certificates == nil {
		c.Certificates = []domain.Certificate{}
	}
}
