package repository

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/bibliotech/library-service/internal/errs"
	"github.com/bibliotech/library-service/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var bookColumns = []string{
	"b.id", "book_uid", "title", "author", "isbn",
	"coalesce(c.name, '') as category", "copies_total", "copies_available",
}

func bookQuery() sq.SelectBuilder {
	return qb.Select(bookColumns...).
		From(booksTableName + " b").
		LeftJoin(fmt.Sprintf("%s c on c.id = b.category_id", categoriesTableName))
}

func (r *repository) CreateBook(ctx context.Context, book model.Book) (model.Book, error) {
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		var categoryID sql.NullInt64
		if book.Category != "" {
			id, err := r.categoryID(ctx, tx, book.Category)
			if err != nil {
				return err
			}
			categoryID = sql.NullInt64{Int64: int64(id), Valid: true}
		}

		q, args, err := qb.Insert(booksTableName).
			Columns("book_uid", "title", "author", "isbn", "category_id", "copies_total", "copies_available").
			Values(book.BookUid, book.Title, book.Author, book.ISBN, categoryID, book.CopiesTotal, book.CopiesAvailable).
			Suffix("returning id").
			ToSql()
		if err != nil {
			return err
		}
		if err := tx.GetContext(ctx, &book.ID, q, args...); err != nil {
			return wrapPgErr(err)
		}
		return nil
	})
	if err != nil {
		return model.Book{}, err
	}
	return book, nil
}

func (r *repository) GetBook(ctx context.Context, bookUid string) (model.Book, error) {
	query, args, err := bookQuery().
		Where(sq.Eq{"book_uid": bookUid}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := r.db.GetContext(ctx, &book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		return model.Book{}, err
	}
	return book, nil
}

func (r *repository) ListBooks(ctx context.Context, page, size int) (model.ListBooks, error) {
	q := withPaging(bookQuery().OrderBy("b.id"), page, size)

	query, args, err := q.ToSql()
	if err != nil {
		return model.ListBooks{}, err
	}
	r.log.Debug("ListBooks", zap.String("query", query), zap.Any("args", args))

	var books []model.Book
	if err := r.db.SelectContext(ctx, &books, query, args...); err != nil {
		return model.ListBooks{}, err
	}

	return model.ListBooks{
		Paging: paging(page, size, len(books)),
		Items:  books,
	}, nil
}

func (r *repository) UpdateBook(ctx context.Context, bookUid string, req model.BookUpdateRequest) (model.Book, error) {
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		upd := qb.Update(booksTableName).
			Set("title", req.Title).
			Set("author", req.Author).
			Where(sq.Eq{"book_uid": bookUid})

		if req.Category != "" {
			id, err := r.categoryID(ctx, tx, req.Category)
			if err != nil {
				return err
			}
			upd = upd.Set("category_id", id)
		}

		query, args, err := upd.ToSql()
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return wrapPgErr(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errs.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return model.Book{}, err
	}
	return r.GetBook(ctx, bookUid)
}

// DeleteBook refuses while active loans or reservations reference the book.
func (r *repository) DeleteBook(ctx context.Context, bookUid string) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		var busy bool
		q := fmt.Sprintf(`
	select exists (select 1 from %s where book_uid = $1)
	    or exists (select 1 from %s where book_uid = $1 and active)`,
			loansTableName, reservationsTableName)
		if err := tx.GetContext(ctx, &busy, q, bookUid); err != nil {
			return err
		}
		if busy {
			return errs.ErrConflict
		}

		query, args, err := qb.Delete(booksTableName).
			Where(sq.Eq{"book_uid": bookUid}).
			ToSql()
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return wrapPgErr(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errs.ErrNotFound
		}
		return nil
	})
}

func (r *repository) GetAvailability(ctx context.Context, bookUid string) (int, error) {
	query, args, err := qb.Select("copies_available").
		From(booksTableName).
		Where(sq.Eq{"book_uid": bookUid}).
		ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, errs.ErrNotFound
		}
		return 0, err
	}
	return count, nil
}

// AdjustAvailability applies delta as a conditional single-statement update,
// so the counter can neither go negative nor exceed copies_total.
func (r *repository) AdjustAvailability(ctx context.Context, bookUid string, delta int) error {
	return adjustAvailability(ctx, r.db, bookUid, delta)
}

type execGetter interface {
	sqlx.ExecerContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

func adjustAvailability(ctx context.Context, db execGetter, bookUid string, delta int) error {
	q := `
update books
    set copies_available = copies_available + $2
where book_uid = $1
  and copies_available + $2 between 0 and copies_total`
	res, err := db.ExecContext(ctx, q, bookUid, delta)
	if err != nil {
		return wrapPgErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if err := db.GetContext(ctx, &exists,
			`select exists (select 1 from books where book_uid = $1)`, bookUid); err != nil {
			return err
		}
		if !exists {
			return errs.ErrNotFound
		}
		if delta < 0 {
			return errs.ErrUnavailable
		}
		return errs.ErrInvariant
	}
	return nil
}

func (r *repository) ListCategories(ctx context.Context) ([]model.Category, error) {
	query, args, err := qb.Select("id", "name").
		From(categoriesTableName).
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, err
	}

	var categories []model.Category
	if err := r.db.SelectContext(ctx, &categories, query, args...); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *repository) CreateCategory(ctx context.Context, name string) (model.Category, error) {
	query, args, err := qb.Insert(categoriesTableName).
		Columns("name").
		Values(name).
		Suffix("returning id, name").
		ToSql()
	if err != nil {
		return model.Category{}, err
	}

	var category model.Category
	if err := r.db.GetContext(ctx, &category, query, args...); err != nil {
		return model.Category{}, wrapPgErr(err)
	}
	return category, nil
}

func (r *repository) categoryID(ctx context.Context, tx *sqlx.Tx, name string) (int, error) {
	var id int
	err := tx.GetContext(ctx, &id,
		`select id from categories where name = $1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, errs.ErrNotFound
	}
	return id, err
}
