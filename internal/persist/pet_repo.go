package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ErrPetNotFound is returned when a catch time does not name a stored pet.
var ErrPetNotFound = errors.New("persist: pet not found")

// PetRow is one stored pet instance. CatchTime is its unique id.
type PetRow struct {
	CatchTime uint32
	OwnerID   uint32
	PetID     int32
	Level     int
	Exp       int
	HP        int
	Skills    []int32
	SkillPP   []int32
}

type PetRepo struct {
	db *DB
}

func NewPetRepo(db *DB) *PetRepo {
	return &PetRepo{db: db}
}

const petColumns = `catch_time, owner_id, pet_id, level, exp, hp, skills, skill_pp`

func scanPet(row pgx.Row) (PetRow, error) {
	var p PetRow
	err := row.Scan(&p.CatchTime, &p.OwnerID, &p.PetID, &p.Level, &p.Exp, &p.HP, &p.Skills, &p.SkillPP)
	return p, err
}

// ListByOwner returns every pet of owner in catch order.
func (r *PetRepo) ListByOwner(ctx context.Context, ownerID uint32) ([]PetRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+petColumns+` FROM pets WHERE owner_id = $1 ORDER BY catch_time`, ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PetRow
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// Load returns a single pet.
func (r *PetRepo) Load(ctx context.Context, catchTime uint32) (PetRow, error) {
	p, err := scanPet(r.db.Pool.QueryRow(ctx,
		`SELECT `+petColumns+` FROM pets WHERE catch_time = $1`, catchTime,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return PetRow{}, fmt.Errorf("%w: %d", ErrPetNotFound, catchTime)
	}
	return p, err
}

// Create inserts p and fills in its CatchTime.
func (r *PetRepo) Create(ctx context.Context, p *PetRow) error {
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO pets (owner_id, pet_id, level, exp, hp, skills, skill_pp)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING catch_time`,
		p.OwnerID, p.PetID, p.Level, p.Exp, p.HP, p.Skills, p.SkillPP,
	).Scan(&p.CatchTime)
}

// SaveState writes back the fields a battle can change.
func (r *PetRepo) SaveState(ctx context.Context, p PetRow) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE pets SET hp = $2, skill_pp = $3, level = $4, exp = $5 WHERE catch_time = $1`,
		p.CatchTime, p.HP, p.SkillPP, p.Level, p.Exp,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", ErrPetNotFound, p.CatchTime)
	}
	return nil
}
