package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/piwi3910/RotorSizer/internal/logging"
	"github.com/piwi3910/RotorSizer/internal/model"
)

// RedisStore keeps one hash per component family, field name to JSON
// record, plus a list holding the catalog order of each family.
type RedisStore struct {
	client *redis.Client
	prefix string
	log    logging.Logger
}

// RedisOptions configures NewRedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // key namespace, "rotorsizer" when empty
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(opts RedisOptions, log logging.Logger) (*RedisStore, error) {
	if log == nil {
		log = logging.Noop()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "rotorsizer"
	}
	return &RedisStore{client: client, prefix: prefix, log: log.With(logging.String("store", "redis"))}, nil
}

func (s *RedisStore) hashKey(k model.Kind) string  { return fmt.Sprintf("%s:catalog:%s", s.prefix, k) }
func (s *RedisStore) orderKey(k model.Kind) string { return s.hashKey(k) + ":order" }

// Load reads every family in catalog order.
func (s *RedisStore) Load(ctx context.Context) (model.Catalog, error) {
	var cat model.Catalog
	for _, k := range model.Kinds() {
		names, err := s.client.LRange(ctx, s.orderKey(k), 0, -1).Result()
		if err != nil {
			return model.Catalog{}, fmt.Errorf("failed to read %s order: %w", k, err)
		}
		if len(names) == 0 {
			continue
		}
		vals, err := s.client.HMGet(ctx, s.hashKey(k), names...).Result()
		if err != nil {
			return model.Catalog{}, fmt.Errorf("failed to read %s records: %w", k, err)
		}
		raws := make([]string, 0, len(vals))
		for i, v := range vals {
			str, ok := v.(string)
			if !ok {
				s.log.Warn(ctx, "catalog order lists a missing record",
					logging.String("kind", string(k)), logging.String("name", names[i]))
				continue
			}
			raws = append(raws, str)
		}
		if err := decodeKind(&cat, k, raws); err != nil {
			return model.Catalog{}, err
		}
	}
	if err := cat.Normalize(); err != nil {
		return model.Catalog{}, fmt.Errorf("invalid catalog in redis: %w", err)
	}
	s.log.Debug(ctx, "catalog loaded", logging.Int("records", cat.Len()))
	return cat, nil
}

// Save replaces every family atomically.
func (s *RedisStore) Save(ctx context.Context, cat model.Catalog) error {
	if err := cat.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid catalog: %w", err)
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range model.Kinds() {
			pipe.Del(ctx, s.hashKey(k), s.orderKey(k))
			comps := cat.Components(k)
			if len(comps) == 0 {
				continue
			}
			fields := make([]any, 0, 2*len(comps))
			order := make([]any, 0, len(comps))
			for _, c := range comps {
				data, err := json.Marshal(c)
				if err != nil {
					return fmt.Errorf("failed to marshal %s %q: %w", k, c.Key(), err)
				}
				fields = append(fields, c.Key(), data)
				order = append(order, c.Key())
			}
			pipe.HSet(ctx, s.hashKey(k), fields...)
			pipe.RPush(ctx, s.orderKey(k), order...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store catalog: %w", err)
	}
	s.log.Info(ctx, "catalog saved", logging.Int("records", cat.Len()))
	return nil
}

// Get reads one record.
func (s *RedisStore) Get(ctx context.Context, kind model.Kind, name string) (model.Component, error) {
	raw, err := s.client.HGet(ctx, s.hashKey(kind), name).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("%s %q: %w", kind, name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get %s %q: %w", kind, name, err)
	}
	var cat model.Catalog
	if err := decodeKind(&cat, kind, []string{raw}); err != nil {
		return nil, err
	}
	return find(&cat, kind, name)
}

// Put writes one record, appending its name to the family order when new.
func (s *RedisStore) Put(ctx context.Context, comp model.Component) error {
	data, err := json.Marshal(comp)
	if err != nil {
		return fmt.Errorf("failed to marshal %s %q: %w", comp.Kind(), comp.Key(), err)
	}
	added, err := s.client.HSet(ctx, s.hashKey(comp.Kind()), comp.Key(), data).Result()
	if err != nil {
		return fmt.Errorf("failed to store %s %q: %w", comp.Kind(), comp.Key(), err)
	}
	if added > 0 {
		if err := s.client.RPush(ctx, s.orderKey(comp.Kind()), comp.Key()).Err(); err != nil {
			return fmt.Errorf("failed to append %s %q to order: %w", comp.Kind(), comp.Key(), err)
		}
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func decodeKind(cat *model.Catalog, k model.Kind, raws []string) error {
	var err error
	switch k {
	case model.KindBattery:
		cat.Batteries, err = decodeAll[model.Battery](k, raws)
	case model.KindMotor:
		cat.Motors, err = decodeAll[model.Motor](k, raws)
	case model.KindPropeller:
		cat.Propellers, err = decodeAll[model.Propeller](k, raws)
	case model.KindPropMotorCombo:
		cat.Combos, err = decodeAll[model.PropMotorCombo](k, raws)
	case model.KindSensor:
		cat.Sensors, err = decodeAll[model.Sensor](k, raws)
	case model.KindPrinter:
		cat.Printers, err = decodeAll[model.Printer](k, raws)
	case model.KindCutter:
		cat.Cutters, err = decodeAll[model.Cutter](k, raws)
	case model.KindPrintMaterial:
		cat.PrintMaterials, err = decodeAll[model.PrintMaterial](k, raws)
	case model.KindCuttingMaterial:
		cat.CuttingMaterials, err = decodeAll[model.CuttingMaterial](k, raws)
	default:
		return fmt.Errorf("unknown component kind %q", k)
	}
	return err
}

func decodeAll[T any](k model.Kind, raws []string) ([]T, error) {
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", k, err)
		}
		out = append(out, v)
	}
	return out, nil
}
