package repository

import (
	"context"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EvidenceRepository persists evidence image metadata.
type EvidenceRepository interface {
	Create(ctx context.Context, image *domain.EvidenceImage) error
	ListByHistory(ctx context.Context, historyIDs []string) (map[string][]domain.EvidenceImage, error)
}

type evidenceRepository struct {
	db DBTX
}

// NewEvidenceRepository constructs repository.
func NewEvidenceRepository(db DBTX) EvidenceRepository {
	return &evidenceRepository{db: db}
}

func (r *evidenceRepository) Create(ctx context.Context, image *domain.EvidenceImage) error {
	const query = `
        INSERT INTO evidence_images (history_id, file_name, url, mime_type, size_bytes, description)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		image.HistoryID,
		image.FileName,
		image.URL,
		image.MimeType,
		image.SizeBytes,
		image.Description,
	).Scan(&image.ID, &image.CreatedAt)
}

func (r *evidenceRepository) ListByHistory(ctx context.Context, historyIDs []string) (map[string][]domain.EvidenceImage, error) {
	result := make(map[string][]domain.EvidenceImage, len(historyIDs))
	if len(historyIDs) == 0 {
		return result, nil
	}
	const query = `
        SELECT id, history_id, file_name, url, mime_type, size_bytes, description, created_at
        FROM evidence_images WHERE history_id = ANY($1) ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query, historyIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var image domain.EvidenceImage
		if err := rows.Scan(
			&image.ID,
			&image.HistoryID,
			&image.FileName,
			&image.URL,
			&image.MimeType,
			&image.SizeBytes,
			&image.Description,
			&image.CreatedAt,
		); err != nil {
			return nil, err
		}
		result[image.HistoryID] = append(result[image.HistoryID], image)
	}
	return result, rows.Err()
}
