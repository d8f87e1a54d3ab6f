package database

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"collab-app/internal/models"
	"collab-app/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

//go:embed schema.sql
var schema string

type PostgresDB struct {
	pool *pgxpool.Pool
}

func NewPostgresDB(databaseURL string) (*PostgresDB, error) {
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Connected to database successfully")
	return &PostgresDB{pool: pool}, nil
}

// Migrate creates the tables if they do not exist yet.
func (db *PostgresDB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (db *PostgresDB) Close() error {
	db.pool.Close()
	return nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func uniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// User Repository Implementation
func (db *PostgresDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, display_name, email, password_hash, created_at FROM users WHERE email = $1`

	user := &models.User{}
	err := db.pool.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash, &user.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}

	return user, nil
}

func (db *PostgresDB) CreateUser(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	query := `
		INSERT INTO users (display_name, email, password_hash, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, display_name, email, created_at`

	user := &models.User{PasswordHash: string(hash)}
	err = db.pool.QueryRow(ctx, query, req.DisplayName, req.Email, string(hash)).Scan(
		&user.ID, &user.DisplayName, &user.Email, &user.CreatedAt,
	)
	if err != nil {
		if uniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (db *PostgresDB) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT id, display_name, email, created_at FROM users WHERE id = $1`

	user := &models.User{}
	err := db.pool.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.DisplayName, &user.Email, &user.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}

	return user, nil
}

// Room Repository Implementation
func (db *PostgresDB) CreateRoom(ctx context.Context, req *models.CreateRoomRequest, ownerID int) (*models.Room, error) {
	query := `
		INSERT INTO rooms (id, name, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, name, owner_id, created_at, updated_at`

	room := &models.Room{}
	err := db.pool.QueryRow(ctx, query, uuid.NewString(), req.Name, ownerID).Scan(
		&room.ID, &room.Name, &room.OwnerID, &room.CreatedAt, &room.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	return room, nil
}

func (db *PostgresDB) GetRoomByID(ctx context.Context, id string) (*models.Room, error) {
	query := `SELECT id, name, owner_id, created_at, updated_at FROM rooms WHERE id = $1`

	room := &models.Room{}
	err := db.pool.QueryRow(ctx, query, id).Scan(
		&room.ID, &room.Name, &room.OwnerID, &room.CreatedAt, &room.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}

	return room, nil
}

func (db *PostgresDB) ListRooms(ctx context.Context) ([]*models.Room, error) {
	query := `SELECT id, name, owner_id, created_at, updated_at FROM rooms ORDER BY name`

	rows, err := db.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []*models.Room
	for rows.Next() {
		room := &models.Room{}
		if err := rows.Scan(&room.ID, &room.Name, &room.OwnerID, &room.CreatedAt, &room.UpdatedAt); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}

	return rooms, rows.Err()
}

func (db *PostgresDB) UpdateRoom(ctx context.Context, id string, req *models.UpdateRoomRequest) (*models.Room, error) {
	query := `
		UPDATE rooms SET name = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, owner_id, created_at, updated_at`

	room := &models.Room{}
	err := db.pool.QueryRow(ctx, query, id, req.Name).Scan(
		&room.ID, &room.Name, &room.OwnerID, &room.CreatedAt, &room.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}

	return room, nil
}

func (db *PostgresDB) DeleteRoom(ctx context.Context, roomID string, ownerID int) error {
	// Check ownership first
	var currentOwnerID int
	err := db.pool.QueryRow(ctx, "SELECT owner_id FROM rooms WHERE id = $1", roomID).Scan(&currentOwnerID)
	if err != nil {
		return notFound(err)
	}

	if currentOwnerID != ownerID {
		return ErrForbidden
	}

	_, err = db.pool.Exec(ctx, "DELETE FROM rooms WHERE id = $1", roomID)
	return err
}
