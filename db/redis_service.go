package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/config"
	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/models"
)

const (
	staffKey        = "staff"                  // Sorted set: staff IDs scored by display position
	staffSeqKey     = "staff:seq"              // Counter used to allocate staff IDs
	staffInfoPrefix = "staff:"                 // Hash prefix: staff:{id} -> staff record fields
	contactOutbox   = "contact:messages"       // List: JSON encoded contact messages, oldest first
	subscribersKey  = "newsletter:subscribers" // Set: subscribed email addresses
)

// ErrStaffNotFound is returned when a staff ID has no stored record.
var ErrStaffNotFound = errors.New("staff member not found")

// RedisService keeps the staff directory, the contact outbox and the
// newsletter list in Redis. It satisfies services.StaffDirectory and
// services.Mailer.
type RedisService struct {
	Client *redis.Client
	Logger *zap.Logger
}

// NewRedisService creates a new RedisService instance
func NewRedisService(client *redis.Client, logger *zap.Logger) *RedisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisService{Client: client, Logger: logger}
}

func getStaffInfoKey(id string) string {
	return staffInfoPrefix + id
}

// --- Staff Operations ---

// AddStaff appends a record to the end of the directory and returns its ID.
func (s *RedisService) AddStaff(ctx context.Context, rec models.StaffRecord) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}
	dept, _ := models.ParseDepartment(string(rec.Department))

	seq, err := s.Client.Incr(ctx, staffSeqKey).Result()
	if err != nil {
		return "", fmt.Errorf("failed to allocate staff id: %w", err)
	}
	id := strconv.FormatInt(seq, 10)

	pipe := s.Client.TxPipeline()
	pipe.HSet(ctx, getStaffInfoKey(id), map[string]interface{}{
		"id":         id,
		"name":       rec.Name,
		"title":      rec.Title,
		"department": string(dept),
		"subject":    rec.Subject,
		"bio":        rec.Bio,
		"image":      rec.Image,
	})
	pipe.ZAdd(ctx, staffKey, &redis.Z{Score: float64(seq), Member: id})

	if _, err := pipe.Exec(ctx); err != nil {
		s.Logger.Error("adding staff record failed", zap.String("name", rec.Name), zap.Error(err))
		return "", fmt.Errorf("failed to add staff to Redis: %w", err)
	}
	s.Logger.Debug("added staff record", zap.String("id", id), zap.String("name", rec.Name))
	return id, nil
}

// GetStaff retrieves one record by ID.
func (s *RedisService) GetStaff(ctx context.Context, id string) (models.StaffRecord, error) {
	data, err := s.Client.HGetAll(ctx, getStaffInfoKey(id)).Result()
	if err != nil {
		return models.StaffRecord{}, fmt.Errorf("failed to get staff %s from Redis: %w", id, err)
	}
	if len(data) == 0 {
		return models.StaffRecord{}, ErrStaffNotFound
	}
	return staffFromHash(data), nil
}

// All returns every stored record in insertion order.
func (s *RedisService) All(ctx context.Context) ([]models.StaffRecord, error) {
	ids, err := s.Client.ZRange(ctx, staffKey, 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []models.StaffRecord{}, nil
		}
		return nil, fmt.Errorf("failed to list staff IDs: %w", err)
	}

	pipe := s.Client.Pipeline()
	cmds := make([]*redis.StringStringMapCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, getStaffInfoKey(id))
	}
	if len(ids) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("failed to load staff records: %w", err)
		}
	}

	records := make([]models.StaffRecord, 0, len(ids))
	for i, cmd := range cmds {
		data := cmd.Val()
		if len(data) == 0 {
			// Index entry without a hash; skip it rather than fail the page.
			s.Logger.Warn("staff index points at missing record", zap.String("id", ids[i]))
			continue
		}
		records = append(records, staffFromHash(data))
	}
	return records, nil
}

func staffFromHash(data map[string]string) models.StaffRecord {
	rec := models.StaffRecord{
		Name:    data["name"],
		Title:   data["title"],
		Subject: data["subject"],
		Bio:     data["bio"],
		Image:   data["image"],
	}
	if dept, err := models.ParseDepartment(data["department"]); err == nil {
		rec.Department = dept
	} else {
		rec.Department = models.Department(data["department"])
	}
	return rec
}

// StaffCount returns how many records the directory index holds.
func (s *RedisService) StaffCount(ctx context.Context) (int64, error) {
	n, err := s.Client.ZCard(ctx, staffKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("failed to count staff: %w", err)
	}
	return n, nil
}

// ClearStaff removes every staff record, the index and the ID counter.
func (s *RedisService) ClearStaff(ctx context.Context) error {
	ids, err := s.Client.ZRange(ctx, staffKey, 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to list staff IDs: %w", err)
	}

	keys := make([]string, 0, len(ids)+2)
	for _, id := range ids {
		keys = append(keys, getStaffInfoKey(id))
	}
	keys = append(keys, staffKey, staffSeqKey)

	if err := s.Client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to clear staff: %w", err)
	}
	s.Logger.Info("cleared staff directory", zap.Int("records", len(ids)))
	return nil
}

// SeedStaff loads records into an empty directory. With force set, existing
// records are removed first. It returns the number of records added.
func (s *RedisService) SeedStaff(ctx context.Context, records []models.StaffRecord, force bool) (int, error) {
	count, err := s.StaffCount(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 && !force {
		s.Logger.Info("staff directory already populated, skipping seed", zap.Int64("count", count))
		return 0, nil
	}
	if count > 0 {
		if err := s.ClearStaff(ctx); err != nil {
			return 0, err
		}
	}

	added := 0
	for _, rec := range records {
		if _, err := s.AddStaff(ctx, rec); err != nil {
			s.Logger.Warn("skipping staff record", zap.String("name", rec.Name), zap.Error(err))
			continue
		}
		added++
	}
	s.Logger.Info("seeded staff directory", zap.Int("added", added), zap.Int("total", len(records)))
	return added, nil
}

// --- Contact outbox and newsletter ---

// SendContact queues a contact message in the outbox list.
func (s *RedisService) SendContact(ctx context.Context, msg models.ContactMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode contact message: %w", err)
	}
	if err := s.Client.RPush(ctx, contactOutbox, payload).Err(); err != nil {
		return fmt.Errorf("failed to queue contact message: %w", err)
	}
	s.Logger.Info("contact message queued", zap.String("id", msg.ID))
	return nil
}

// ContactMessages returns up to limit queued messages, oldest first. A
// non-positive limit returns all of them.
func (s *RedisService) ContactMessages(ctx context.Context, limit int64) ([]models.ContactMessage, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = limit - 1
	}
	raw, err := s.Client.LRange(ctx, contactOutbox, 0, stop).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to read contact outbox: %w", err)
	}

	msgs := make([]models.ContactMessage, 0, len(raw))
	for _, item := range raw {
		var m models.ContactMessage
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			s.Logger.Warn("skipping undecodable outbox entry", zap.Error(err))
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// Subscribe adds the address to the newsletter set. Repeated sign-ups are a no-op.
func (s *RedisService) Subscribe(ctx context.Context, sub models.Subscription) error {
	if sub.Email == "" {
		return errors.New("subscription email cannot be empty")
	}
	added, err := s.Client.SAdd(ctx, subscribersKey, sub.Email).Result()
	if err != nil {
		return fmt.Errorf("failed to store subscription: %w", err)
	}
	s.Logger.Info("newsletter subscription stored", zap.String("email", sub.Email), zap.Bool("new", added > 0))
	return nil
}

// Subscribers lists the subscribed addresses in no particular order.
func (s *RedisService) Subscribers(ctx context.Context) ([]string, error) {
	members, err := s.Client.SMembers(ctx, subscribersKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	return members, nil
}

// --- Utility ---

// Ping checks the connection.
func (s *RedisService) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

// InitializeRedisClient creates a client from cfg and checks the connection.
func InitializeRedisClient(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", cfg.Addr, err)
	}

	if logger != nil {
		logger.Info("connected to Redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	}
	return rdb, nil
}
