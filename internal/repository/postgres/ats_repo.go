package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"resume-portfolio-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type atsRepo struct {
	db *pgxpool.Pool
}

// NewATSRepository creates the analysis report / score history repository.
func NewATSRepository(db *pgxpool.Pool) domain.ATSRepository {
	return &atsRepo{db: db}
}

func (r *atsRepo) CreateReport(ctx context.Context, report *domain.AnalysisReport) error {
	query := `
		INSERT INTO analysis_reports
			(id, user_id, resume_title, job_title, analysis_date, match_score, keyword_count, report_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		report.ID, report.UserID, report.ResumeTitle, report.JobTitle,
		report.AnalysisDate, report.Summary.MatchScore, report.Summary.KeywordCount,
		report.ReportData, report.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("report insert failed: %w", err)
	}
	return nil
}

func (r *atsRepo) GetReport(ctx context.Context, userID, reportID string) (*domain.AnalysisReport, error) {
	query := `
		SELECT id, user_id, resume_title, job_title, analysis_date, match_score, keyword_count,
		       COALESCE(report_data, ''), created_at
		FROM analysis_reports
		WHERE id = $1 AND user_id = $2`

	var report domain.AnalysisReport
	err := r.db.QueryRow(ctx, query, reportID, userID).Scan(
		&report.ID, &report.UserID, &report.ResumeTitle, &report.JobTitle,
		&report.AnalysisDate, &report.Summary.MatchScore, &report.Summary.KeywordCount,
		&report.ReportData, &report.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("report query failed: %w", err)
	}
	return &report, nil
}

func (r *atsRepo) ListReports(ctx context.Context, userID string) ([]domain.AnalysisReport, error) {
	query := `
		SELECT id, user_id, resume_title, job_title, analysis_date, match_score, keyword_count,
		       COALESCE(report_data, ''), created_at
		FROM analysis_reports
		WHERE user_id = $1
		ORDER BY analysis_date DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("report list query failed: %w", err)
	}
	defer rows.Close()

	var reports []domain.AnalysisReport
	for rows.Next() {
		var report domain.AnalysisReport
		if err := rows.Scan(
			&report.ID, &report.UserID, &report.ResumeTitle, &report.JobTitle,
			&report.AnalysisDate, &report.Summary.MatchScore, &report.Summary.KeywordCount,
			&report.ReportData, &report.CreatedAt,
		); err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

func (r *atsRepo) DeleteReport(ctx context.Context, userID, reportID string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM analysis_reports WHERE id = $1 AND user_id = $2`, reportID, userID)
	if err != nil {
		return false, fmt.Errorf("report delete failed: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *atsRepo) CreateHistoryEntry(ctx context.Context, entry *domain.ScoreHistoryEntry) error {
	detailed, err := json.Marshal(entry.DetailedScores)
	if err != nil {
		return fmt.Errorf("detailed scores marshal failed: %w", err)
	}

	query := `
		INSERT INTO score_history
			(id, user_id, overall_score, detailed_scores, resume_title, job_title,
			 analysis_date, analysis_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = r.db.Exec(ctx, query,
		entry.ID, entry.UserID, entry.OverallScore, detailed,
		entry.ResumeTitle, entry.JobTitle, entry.AnalysisDate,
		entry.AnalysisID, entry.ExpiresAt, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("history insert failed: %w", err)
	}
	return nil
}

func (r *atsRepo) LatestHistoryEntry(ctx context.Context, userID string) (*domain.ScoreHistoryEntry, error) {
	query := historySelect + `
		WHERE user_id = $1 AND expires_at > NOW()
		ORDER BY analysis_date DESC
		LIMIT 1`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("latest history query failed: %w", err)
	}
	defer rows.Close()

	entries, err := scanHistory(rows)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

func (r *atsRepo) ListHistory(ctx context.Context, userID string, since *time.Time, limit int) ([]domain.ScoreHistoryEntry, error) {
	query := historySelect + `
		WHERE user_id = $1 AND expires_at > NOW()`
	args := []interface{}{userID}

	if since != nil {
		query += ` AND analysis_date >= $2`
		args = append(args, *since)
	}
	query += fmt.Sprintf(` ORDER BY analysis_date DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("history list query failed: %w", err)
	}
	defer rows.Close()

	return scanHistory(rows)
}

func (r *atsRepo) ListHistoryAsc(ctx context.Context, userID string, limit int) ([]domain.ScoreHistoryEntry, error) {
	query := historySelect + `
		WHERE user_id = $1 AND expires_at > NOW()
		ORDER BY analysis_date ASC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("history trend query failed: %w", err)
	}
	defer rows.Close()

	return scanHistory(rows)
}

const historySelect = `
		SELECT id, user_id, overall_score, detailed_scores, resume_title, job_title,
		       analysis_date, analysis_id, expires_at, created_at
		FROM score_history`

func scanHistory(rows pgx.Rows) ([]domain.ScoreHistoryEntry, error) {
	var entries []domain.ScoreHistoryEntry
	for rows.Next() {
		var e domain.ScoreHistoryEntry
		var detailed []byte
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.OverallScore, &detailed,
			&e.ResumeTitle, &e.JobTitle, &e.AnalysisDate,
			&e.AnalysisID, &e.ExpiresAt, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(detailed) > 0 {
			if err := json.Unmarshal(detailed, &e.DetailedScores); err != nil {
				return nil, fmt.Errorf("detailed scores unmarshal failed: %w", err)
			}
		}
		if e.DetailedScores == nil {
			e.DetailedScores = map[string]float64{}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
