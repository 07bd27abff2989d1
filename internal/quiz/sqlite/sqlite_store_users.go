package sqlite

import (
	"context"
	"database/sql"
	"log/slog"

	"quizboard/internal/quiz"
	"quizboard/internal/storage"
)

type UserStore struct {
	db     *storage.DB
	logger *slog.Logger
}

func NewUserStore(db *storage.DB, logger *slog.Logger) *UserStore {
	return &UserStore{db: db, logger: logger}
}

func (s *UserStore) Get(ctx context.Context, accountName string) (quiz.User, error) {
	var user quiz.User
	err := s.db.InTx(ctx, "user.get", func(ctx context.Context, tx *sql.Tx) error {
		var err error
		user, err = selectUser(ctx, tx, accountName)
		return err
	})
	return user, wrapStorageErr("get user", err)
}

// GetOrCreate returns the user with accountName, inserting it first when it
// does not exist. An existing account, whether created earlier or by a
// concurrent writer, collides on UNIQUE (account_name); the insert is dropped
// and the stored row is returned unchanged.
func (s *UserStore) GetOrCreate(ctx context.Context, accountName string, privateKey *string) (quiz.User, error) {
	var user quiz.User
	err := s.db.InTx(ctx, "user.get_or_create", func(ctx context.Context, tx *sql.Tx) error {
		result, err := tx.ExecContext(
			ctx,
			`INSERT INTO "user" (account_name, private_key) VALUES (?, ?)
			ON CONFLICT (account_name) DO NOTHING`,
			accountName,
			privateKey,
		)
		if err != nil {
			return err
		}
		inserted, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if inserted == 0 {
			s.logger.DebugContext(ctx, "user create conflict absorbed",
				"account_name", accountName,
				"error", quiz.ErrConflict,
			)
		}

		user, err = selectUser(ctx, tx, accountName)
		return err
	})
	return user, wrapStorageErr("get or create user", err)
}

// Update applies the non-nil fields of update. Unknown accounts are a no-op.
func (s *UserStore) Update(ctx context.Context, accountName string, update quiz.UserUpdate) error {
	if update.Empty() {
		return nil
	}

	err := s.db.InTx(ctx, "user.update", func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(
			ctx,
			`UPDATE "user" SET private_key = ? WHERE account_name = ?`,
			*update.PrivateKey,
			accountName,
		)
		return err
	})
	return wrapStorageErr("update user", err)
}

// Delete hard-deletes the user; its participation rows cascade.
func (s *UserStore) Delete(ctx context.Context, accountName string) error {
	err := s.db.InTx(ctx, "user.delete", func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM "user" WHERE account_name = ?`, accountName)
		return err
	})
	return wrapStorageErr("delete user", err)
}

func selectUser(ctx context.Context, tx *sql.Tx, accountName string) (quiz.User, error) {
	var (
		user       quiz.User
		privateKey sql.NullString
	)
	err := tx.QueryRowContext(
		ctx,
		`SELECT id, account_name, private_key FROM "user" WHERE account_name = ?`,
		accountName,
	).Scan(&user.ID, &user.AccountName, &privateKey)
	if err != nil {
		if isNoRows(err) {
			return quiz.User{}, quiz.ErrUserNotFound
		}
		return quiz.User{}, err
	}
	user.PrivateKey = nullString(privateKey)
	return user, nil
}
