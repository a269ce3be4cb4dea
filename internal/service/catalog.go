package service

import (
	"context"

	"github.com/bibliotech/library-service/internal/model"
	"github.com/bibliotech/library-service/internal/repository"
	"go.uber.org/zap"
)

type CatalogService struct {
	log  *zap.Logger
	repo repository.CatalogRepository
}

func NewCatalogService(repo repository.CatalogRepository, log *zap.Logger) *CatalogService {
	return &CatalogService{
		log:  log,
		repo: repo,
	}
}

func (s *CatalogService) CreateBook(ctx context.Context, req model.BookCreateRequest) (model.Book, error) {
	return s.repo.CreateBook(ctx, model.Book{
		BookUid:         newUid(),
		Title:           req.Title,
		Author:          req.Author,
		ISBN:            req.ISBN,
		Category:        req.Category,
		CopiesTotal:     req.CopiesTotal,
		CopiesAvailable: req.CopiesTotal,
	})
}

func (s *CatalogService) GetBook(ctx context.Context, bookUid string) (model.Book, error) {
	return s.repo.GetBook(ctx, bookUid)
}

func (s *CatalogService) ListBooks(ctx context.Context, page, size int) (model.ListBooks, error) {
	return s.repo.ListBooks(ctx, page, size)
}

func (s *CatalogService) UpdateBook(ctx context.Context, bookUid string, req model.BookUpdateRequest) (model.Book, error) {
	return s.repo.UpdateBook(ctx, bookUid, req)
}

func (s *CatalogService) DeleteBook(ctx context.Context, bookUid string) error {
	return s.repo.DeleteBook(ctx, bookUid)
}

func (s *CatalogService) GetAvailability(ctx context.Context, bookUid string) (int, error) {
	return s.repo.GetAvailability(ctx, bookUid)
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *CatalogService) CreateCategory(ctx context.Context, req model.CategoryCreateRequest) (model.Category, error) {
	return s.repo.CreateCategory(ctx, req.Name)
}
