package repo

import (
	"context"
	"errors"

	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DrawingRepo interface {
	Create(ctx context.Context, t *model.DrawingTest) error
	Get(ctx context.Context, testID uint) (*model.DrawingTest, error)
	Exists(ctx context.Context, testID uint) (bool, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]model.DrawingTest, error)
	Delete(ctx context.Context, userID, testID uint) (int64, error)

	GetResult(ctx context.Context, testID uint) (*model.DrawingTestResult, error)
	UpsertResult(ctx context.Context, r *model.DrawingTestResult) error
	// LatestAnalyzed returns the user's newest test with a classified result,
	// or gorm.ErrRecordNotFound.
	LatestAnalyzed(ctx context.Context, userID uint) (*model.DrawingTest, error)
}

type drawingRepo struct{ db *gorm.DB }

func NewDrawingRepo(db *gorm.DB) DrawingRepo {
	return &drawingRepo{db: db}
}

func (r *drawingRepo) Create(ctx context.Context, t *model.DrawingTest) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *drawingRepo) Get(ctx context.Context, testID uint) (*model.DrawingTest, error) {
	var t model.DrawingTest
	if err := r.db.WithContext(ctx).Where("test_id = ?", testID).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *drawingRepo) Exists(ctx context.Context, testID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.DrawingTest{}).
		Where("test_id = ?", testID).
		Limit(1).
		Count(&n).Error
	return n > 0, err
}

func (r *drawingRepo) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]model.DrawingTest, error) {
	q := r.db.WithContext(ctx).
		Preload("Result").
		Where("user_id = ?", userID).
		Order("submitted_at DESC, test_id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	var tests []model.DrawingTest
	return tests, q.Find(&tests).Error
}

// Delete removes the test and its result. It reports how many tests matched.
func (r *drawingRepo) Delete(ctx context.Context, userID, testID uint) (int64, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("test_id = ? AND user_id = ?", testID, userID).Delete(&model.DrawingTest{})
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected
		if affected == 0 {
			return nil
		}
		return tx.Where("test_id = ?", testID).Delete(&model.DrawingTestResult{}).Error
	})
	return affected, err
}

func (r *drawingRepo) GetResult(ctx context.Context, testID uint) (*model.DrawingTestResult, error) {
	var res model.DrawingTestResult
	if err := r.db.WithContext(ctx).Where("test_id = ?", testID).First(&res).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

// UpsertResult keeps exactly one result row per test.
func (r *drawingRepo) UpsertResult(ctx context.Context, res *model.DrawingTestResult) error {
	cols := append([]string{"persona_type", "summary_text", "created_at"}, model.ScoreColumns()...)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "test_id"}},
		DoUpdates: clause.AssignmentColumns(cols),
	}).Create(res).Error
}

func (r *drawingRepo) LatestAnalyzed(ctx context.Context, userID uint) (*model.DrawingTest, error) {
	var t model.DrawingTest
	err := r.db.WithContext(ctx).
		Joins("Result").
		Where("drawing_tests.user_id = ?", userID).
		Where(`"Result"."test_id" IS NOT NULL AND "Result"."persona_type" IS NOT NULL`).
		Order("drawing_tests.submitted_at DESC, drawing_tests.test_id DESC").
		First(&t).Error
	if err != nil {
		return nil, err
	}
	if t.Result == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &t, nil
}

// IsNotFound reports whether err is a missing-row error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
