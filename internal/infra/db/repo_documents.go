package db

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/n-arms/md-pgp-server/internal/domain"
	"github.com/n-arms/md-pgp-server/internal/usecase"
)

type DocumentRepository struct {
	db *gorm.DB
	// locked is set on repositories handed to WithTx callbacks; reads then
	// take a row lock so the share read-modify-write serializes per document.
	locked bool
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Insert(ctx context.Context, doc domain.Document) error {
	if r.db == nil {
		return domain.ErrStorageUnavailable
	}
	model := DocumentModel{
		ID:         doc.ID,
		Name:       doc.Name,
		Owner:      string(doc.Owner),
		SharedWith: EncodeSharedWith(doc.SharedWith),
		CreatedAt:  doc.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return storageError(err)
	}
	return nil
}

func (r *DocumentRepository) GetOwner(ctx context.Context, docID string) (domain.Identity, error) {
	model, err := r.fetch(ctx, docID)
	if err != nil {
		return "", err
	}
	return domain.Identity(model.Owner), nil
}

func (r *DocumentRepository) GetSharedWith(ctx context.Context, docID string) ([]domain.Identity, error) {
	model, err := r.fetch(ctx, docID)
	if err != nil {
		return nil, err
	}
	return DecodeSharedWith(model.SharedWith), nil
}

func (r *DocumentRepository) SetSharedWith(ctx context.Context, docID string, list []domain.Identity) error {
	if r.db == nil {
		return domain.ErrStorageUnavailable
	}
	res := r.db.WithContext(ctx).
		Model(&DocumentModel{}).
		Where("id = ?", docID).
		Update("shared_with", EncodeSharedWith(list))
	if res.Error != nil {
		return storageError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUnknownDocument
	}
	return nil
}

func (r *DocumentRepository) ListByOwner(ctx context.Context, owner domain.Identity) ([]domain.DocumentSummary, error) {
	if r.db == nil {
		return nil, domain.ErrStorageUnavailable
	}
	var models []DocumentModel
	err := r.db.WithContext(ctx).
		Select("id", "name", "created_at").
		Where("owner = ?", string(owner)).
		Order("id").
		Find(&models).Error
	if err != nil {
		return nil, storageError(err)
	}
	return summaries(models), nil
}

// ListSharedWith matches the identity against the delimited column directly;
// identities are fixed-width hex so the patterns cannot cross entries.
func (r *DocumentRepository) ListSharedWith(ctx context.Context, identity domain.Identity) ([]domain.DocumentSummary, error) {
	if r.db == nil {
		return nil, domain.ErrStorageUnavailable
	}
	id := string(identity)
	var models []DocumentModel
	err := r.db.WithContext(ctx).
		Select("id", "name", "created_at").
		Where(
			"shared_with = ? OR shared_with LIKE ? OR shared_with LIKE ? OR shared_with LIKE ?",
			id, id+shareDelimiter+"%", "%"+shareDelimiter+id, "%"+shareDelimiter+id+shareDelimiter+"%",
		).
		Order("id").
		Find(&models).Error
	if err != nil {
		return nil, storageError(err)
	}
	return summaries(models), nil
}

// WithTx wraps fn in a database transaction. Reads inside the callback use
// SELECT ... FOR UPDATE, so two concurrent shares of one document cannot
// both read the same before-list.
func (r *DocumentRepository) WithTx(ctx context.Context, docID string, fn func(repo usecase.DocumentRepository) error) error {
	if r.db == nil {
		return domain.ErrStorageUnavailable
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&DocumentRepository{db: tx, locked: true})
	})
}

func (r *DocumentRepository) fetch(ctx context.Context, docID string) (*DocumentModel, error) {
	if r.db == nil {
		return nil, domain.ErrStorageUnavailable
	}
	q := r.db.WithContext(ctx)
	if r.locked {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var model DocumentModel
	err := q.First(&model, "id = ?", docID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUnknownDocument
		}
		return nil, storageError(err)
	}
	return &model, nil
}

func summaries(models []DocumentModel) []domain.DocumentSummary {
	out := make([]domain.DocumentSummary, 0, len(models))
	for _, m := range models {
		out = append(out, domain.DocumentSummary{
			ID:        m.ID,
			Name:      m.Name,
			CreatedAt: m.CreatedAt,
		})
	}
	return out
}
