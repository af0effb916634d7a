package repository

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/abelzeko/soilism/internal/entities"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultSQLiteDSN keeps the database in process memory
const DefaultSQLiteDSN = ":memory:"

// SQLitePlantRepository implements PlantRepository using SQLite
type SQLitePlantRepository struct {
	db  *sql.DB
	DSN string
}

// NewSQLitePlantRepository opens the database and creates the schema
func NewSQLitePlantRepository(dsn string) (*SQLitePlantRepository, error) {
	if dsn == "" {
		dsn = DefaultSQLiteDSN
	}

	log.Printf("Opening plant database at %s", dsn)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	// An in-memory database lives and dies with its connection, so the pool
	// holds exactly one. This also serialises every operation.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Times are stored as unix nanoseconds, 0 meaning unset
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS plants (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		soil TEXT NOT NULL,
		soil_moisture INTEGER NOT NULL DEFAULT 0,
		temperature REAL NOT NULL DEFAULT 0,
		humidity REAL NOT NULL DEFAULT 0,
		last_watered_at INTEGER,
		last_alert_at INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS watering_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		plant_id INTEGER NOT NULL,
		watered_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_watering_plant ON watering_events(plant_id);`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %v", err)
	}

	return &SQLitePlantRepository{
		db:  db,
		DSN: dsn,
	}, nil
}

// Close closes the database connection
func (r *SQLitePlantRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreatePlant inserts a plant with a zero reading and returns its id
func (r *SQLitePlantRepository) CreatePlant(name string, soil entities.SoilCategory) (int64, error) {
	res, err := r.db.Exec(`INSERT INTO plants(name, soil) VALUES(?, ?)`, name, string(soil))
	if err != nil {
		return 0, fmt.Errorf("failed to insert plant %s: %v", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read plant id: %v", err)
	}
	return id, nil
}

// DeletePlant removes a plant and its watering log. Unknown ids are ignored.
func (r *SQLitePlantRepository) DeletePlant(id int64) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}

	if _, err := tx.Exec(`DELETE FROM watering_events WHERE plant_id = ?`, id); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete watering log for plant %d: %v", id, err)
	}
	if _, err := tx.Exec(`DELETE FROM plants WHERE id = ?`, id); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete plant %d: %v", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}
	return nil
}

// GetPlant returns a single plant with its watering log
func (r *SQLitePlantRepository) GetPlant(id int64) (entities.Plant, error) {
	plants, err := r.queryPlants(`WHERE id = ?`, id)
	if err != nil {
		return entities.Plant{}, err
	}
	if len(plants) == 0 {
		return entities.Plant{}, fmt.Errorf("plant %d: %w", id, entities.ErrPlantNotFound)
	}
	return plants[0], nil
}

// ListPlants returns all plants ordered by id
func (r *SQLitePlantRepository) ListPlants() ([]entities.Plant, error) {
	return r.queryPlants("")
}

// queryPlants loads plants matching where plus their watering logs inside one
// read transaction, so a concurrent sample never shows up half applied.
func (r *SQLitePlantRepository) queryPlants(where string, args ...any) ([]entities.Plant, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(`
		SELECT id, name, soil, soil_moisture, temperature, humidity, last_watered_at, last_alert_at
		FROM plants `+where+`
		ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query plants: %v", err)
	}

	var result []entities.Plant
	index := make(map[int64]int)
	for rows.Next() {
		var (
			p           entities.Plant
			soil        string
			lastWatered sql.NullInt64
			lastAlert   int64
		)
		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&soil,
			&p.SensorReading.SoilMoisture,
			&p.SensorReading.Temperature,
			&p.SensorReading.Humidity,
			&lastWatered,
			&lastAlert,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan row: %v", err)
		}
		p.SoilCategory = entities.SoilCategory(soil)
		if lastWatered.Valid {
			t := fromUnixNano(lastWatered.Int64)
			p.LastWateredAt = &t
		}
		p.LastAlertAt = fromUnixNano(lastAlert)
		index[p.ID] = len(result)
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error during row iteration: %v", err)
	}
	rows.Close()

	if len(result) == 0 {
		return []entities.Plant{}, nil
	}

	events, err := tx.Query(`SELECT plant_id, watered_at FROM watering_events ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query watering events: %v", err)
	}
	defer events.Close()

	for events.Next() {
		var plantID, wateredAt int64
		if err := events.Scan(&plantID, &wateredAt); err != nil {
			return nil, fmt.Errorf("failed to scan watering event: %v", err)
		}
		i, ok := index[plantID]
		if !ok {
			continue
		}
		result[i].WateringHistory = append(result[i].WateringHistory, entities.WateringEvent{Time: fromUnixNano(wateredAt)})
	}
	if err := events.Err(); err != nil {
		return nil, fmt.Errorf("error during watering event iteration: %v", err)
	}

	return result, nil
}

// RecordWatering appends a watering event and updates the last watered time
func (r *SQLitePlantRepository) RecordWatering(id int64, at time.Time) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}

	res, err := tx.Exec(`UPDATE plants SET last_watered_at = ? WHERE id = ?`, at.UnixNano(), id)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to update plant %d: %v", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to read affected rows: %v", err)
	}
	if n == 0 {
		tx.Rollback()
		return fmt.Errorf("plant %d: %w", id, entities.ErrPlantNotFound)
	}

	if _, err := tx.Exec(`INSERT INTO watering_events(plant_id, watered_at) VALUES(?, ?)`, id, at.UnixNano()); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to insert watering event for plant %d: %v", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}
	return nil
}

// ApplySampleToAll overwrites the reading of every current plant in one statement
func (r *SQLitePlantRepository) ApplySampleToAll(sample entities.Sample) error {
	_, err := r.db.Exec(`UPDATE plants SET soil_moisture = ?, temperature = ?, humidity = ?`,
		sample.SoilMoisture, sample.Temperature, sample.Humidity)
	if err != nil {
		return fmt.Errorf("failed to apply sample: %v", err)
	}
	return nil
}

// TryMarkAlerted advances the alert timestamp if the cooldown has elapsed.
// The check and the write are a single conditional UPDATE.
func (r *SQLitePlantRepository) TryMarkAlerted(id int64, now time.Time, cooldown time.Duration) (bool, error) {
	nowNano := now.UnixNano()
	res, err := r.db.Exec(`
		UPDATE plants SET last_alert_at = ?
		WHERE id = ? AND (last_alert_at = 0 OR ? - last_alert_at > ?)`,
		nowNano, id, nowNano, cooldown.Nanoseconds())
	if err != nil {
		return false, fmt.Errorf("failed to mark plant %d alerted: %v", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %v", err)
	}
	if n == 1 {
		return true, nil
	}

	var exists int
	err = r.db.QueryRow(`SELECT COUNT(*) FROM plants WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to look up plant %d: %v", id, err)
	}
	if exists == 0 {
		return false, fmt.Errorf("plant %d: %w", id, entities.ErrPlantNotFound)
	}
	return false, nil
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}
