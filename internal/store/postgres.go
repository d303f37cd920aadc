package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paperstudio/backend/internal/models"
)

// PostgresStore handles user, project, section, and citation CRUD
// against PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the tables if they don't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			username   VARCHAR(50)  UNIQUE NOT NULL,
			email      VARCHAR(255) UNIQUE NOT NULL,
			password   VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ  DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS projects (
			id             UUID PRIMARY KEY,
			user_id        UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title          VARCHAR(255) NOT NULL,
			topic          TEXT NOT NULL,
			preferences    TEXT NOT NULL DEFAULT '',
			status         VARCHAR(20) NOT NULL DEFAULT 'DRAFT',
			outline        TEXT NOT NULL DEFAULT '',
			latex_content  TEXT NOT NULL DEFAULT '',
			pdf_object_key TEXT NOT NULL DEFAULT '',
			tex_object_key TEXT NOT NULL DEFAULT '',
			created_at     TIMESTAMPTZ DEFAULT NOW(),
			updated_at     TIMESTAMPTZ DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS sections (
			id         UUID PRIMARY KEY,
			report_id  UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			position   INT NOT NULL,
			type       VARCHAR(20) NOT NULL DEFAULT 'TEXT',
			content    TEXT NOT NULL DEFAULT '',
			metadata   TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_sections_report ON sections(report_id, position);

		CREATE TABLE IF NOT EXISTS citations (
			id         UUID PRIMARY KEY,
			project_id UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			type       VARCHAR(20) NOT NULL,
			title      TEXT NOT NULL,
			authors    TEXT[] NOT NULL DEFAULT '{}',
			url        TEXT NOT NULL DEFAULT '',
			date       TEXT NOT NULL DEFAULT '',
			publisher  TEXT NOT NULL DEFAULT '',
			doi        TEXT NOT NULL DEFAULT '',
			apa        TEXT NOT NULL,
			mla        TEXT NOT NULL,
			chicago    TEXT NOT NULL,
			ieee       TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)
	`)
	return err
}

// ── Users ────────────────────────────────────────────────────────────

func (s *PostgresStore) CreateUser(ctx context.Context, username, email, hashedPassword string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password)
		 VALUES ($1, $2, $3)
		 RETURNING id, username, email, created_at`,
		username, email, hashedPassword,
	).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, email, password, created_at FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, email, created_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ── Projects ─────────────────────────────────────────────────────────

const projectColumns = `id, user_id, title, topic, preferences, status, outline,
	latex_content, pdf_object_key, tex_object_key, created_at, updated_at`

func scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project
	err := row.Scan(&p.ID, &p.UserID, &p.Title, &p.Topic, &p.Preferences, &p.Status,
		&p.Outline, &p.LatexContent, &p.PDFObjectKey, &p.TexObjectKey, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) InsertProject(ctx context.Context, p *models.Project) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO projects (id, user_id, title, topic, preferences, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.UserID, p.Title, p.Topic, p.Preferences, p.Status, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetProject(ctx context.Context, id string) (*models.Project, error) {
	return scanProject(s.pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
}

func (s *PostgresStore) ListProjects(ctx context.Context, userID string) ([]models.Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func (s *PostgresStore) DeleteProject(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	return err
}

func (s *PostgresStore) UpdateProjectStatus(ctx context.Context, id string, status models.ProjectStatus) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE projects SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return err
}

func (s *PostgresStore) UpdateProjectOutline(ctx context.Context, id, outline string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE projects SET outline = $2, updated_at = NOW() WHERE id = $1`, id, outline)
	return err
}

func (s *PostgresStore) UpdateProjectContent(ctx context.Context, id, latexContent string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE projects SET latex_content = $2, updated_at = NOW() WHERE id = $1`, id, latexContent)
	return err
}

func (s *PostgresStore) UpdateProjectArtifacts(ctx context.Context, id, pdfKey, texKey string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE projects SET pdf_object_key = $2, tex_object_key = $3, updated_at = NOW() WHERE id = $1`,
		id, pdfKey, texKey)
	return err
}

// ── Sections ─────────────────────────────────────────────────────────

const sectionColumns = `id, report_id, position, type, content, metadata, created_at, updated_at`

func scanSection(row pgx.Row) (*models.Section, error) {
	var sec models.Section
	err := row.Scan(&sec.ID, &sec.ReportID, &sec.Position, &sec.Type, &sec.Content,
		&sec.Metadata, &sec.CreatedAt, &sec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sec, nil
}

func (s *PostgresStore) ListByReport(ctx context.Context, reportID string) ([]models.Section, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+sectionColumns+` FROM sections WHERE report_id = $1 ORDER BY position`, reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []models.Section
	for rows.Next() {
		sec, err := scanSection(rows)
		if err != nil {
			return nil, err
		}
		sections = append(sections, *sec)
	}
	return sections, rows.Err()
}

func (s *PostgresStore) Get(ctx context.Context, reportID, sectionID string) (*models.Section, error) {
	return scanSection(s.pool.QueryRow(ctx,
		`SELECT `+sectionColumns+` FROM sections WHERE id = $1 AND report_id = $2`,
		sectionID, reportID))
}

func (s *PostgresStore) Insert(ctx context.Context, sec *models.Section) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sections (id, report_id, position, type, content, metadata, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sec.ID, sec.ReportID, sec.Position, sec.Type, sec.Content, sec.Metadata, sec.CreatedAt, sec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert section: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateContent(ctx context.Context, reportID, sectionID, content string) (*models.Section, error) {
	return scanSection(s.pool.QueryRow(ctx,
		`UPDATE sections SET content = $3, updated_at = NOW()
		 WHERE id = $1 AND report_id = $2
		 RETURNING `+sectionColumns,
		sectionID, reportID, content))
}

// Reorder assigns new positions inside one transaction: either every
// section gets its new position or none do.
func (s *PostgresStore) Reorder(ctx context.Context, reportID string, positions map[string]int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for id, pos := range positions {
		tag, err := tx.Exec(ctx,
			`UPDATE sections SET position = $3, updated_at = NOW()
			 WHERE id = $1 AND report_id = $2`,
			id, reportID, pos)
		if err != nil {
			return err
		}
		if tag.RowsAffected() != 1 {
			return pgx.ErrNoRows
		}
	}
	return tx.Commit(ctx)
}

// Delete removes a section and closes the position gap it leaves.
func (s *PostgresStore) Delete(ctx context.Context, reportID, sectionID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var removed int
	err = tx.QueryRow(ctx,
		`DELETE FROM sections WHERE id = $1 AND report_id = $2 RETURNING position`,
		sectionID, reportID,
	).Scan(&removed)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`UPDATE sections SET position = position - 1 WHERE report_id = $1 AND position > $2`,
		reportID, removed)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ── Citations ────────────────────────────────────────────────────────

func (s *PostgresStore) InsertCitation(ctx context.Context, c *models.Citation) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO citations (id, project_id, type, title, authors, url, date, publisher, doi,
			apa, mla, chicago, ieee, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		c.ID, c.ProjectID, c.Type, c.Title, c.Authors, c.URL, c.Date, c.Publisher, c.DOI,
		c.APA, c.MLA, c.Chicago, c.IEEE, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert citation: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListCitations(ctx context.Context, projectID string) ([]models.Citation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, project_id, type, title, authors, url, date, publisher, doi,
			apa, mla, chicago, ieee, created_at
		 FROM citations WHERE project_id = $1 ORDER BY created_at`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cites []models.Citation
	for rows.Next() {
		var c models.Citation
		err := rows.Scan(&c.ID, &c.ProjectID, &c.Type, &c.Title, &c.Authors, &c.URL, &c.Date,
			&c.Publisher, &c.DOI, &c.APA, &c.MLA, &c.Chicago, &c.IEEE, &c.CreatedAt)
		if err != nil {
			return nil, err
		}
		cites = append(cites, c)
	}
	return cites, rows.Err()
}
