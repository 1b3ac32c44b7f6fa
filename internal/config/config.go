package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything tunable at startup. Values come from defaults,
// an optional config file and OPENBOARD_* environment variables, in
// ascending precedence.
type Config struct {
	Server  Server
	Log     Log
	Cluster Cluster
	Files   Files
	Sign    Sign
	Limits  Limits
	Cleanup Cleanup
}

type Server struct {
	Addr    string
	Domains []string
}

type Log struct {
	Level string
}

type Cluster struct {
	Node  string
	Peers []string
}

type Files struct {
	Dir string
	DB  string
}

type Sign struct {
	Secret string
	TTL    time.Duration
}

type Limits struct {
	MaxRoomSize       int
	MaxObjects        int
	MaxMessageSize    int
	MaxRooms          int
	MaxObjectDepth    int
	MaxObjectElements int
	MessagesPerSecond float64
	BurstSize         int
}

type Cleanup struct {
	Interval   time.Duration
	RoomIdle   time.Duration
	SessionTTL time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.domains", []string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("cluster.node", "")
	v.SetDefault("cluster.peers", []string{})
	v.SetDefault("files.dir", "./data/files")
	v.SetDefault("files.db", "./data/files.db")
	v.SetDefault("sign.secret", "")
	v.SetDefault("sign.ttl", "24h")
	v.SetDefault("limits.max_room_size", 50)
	v.SetDefault("limits.max_objects", 10000)
	v.SetDefault("limits.max_message_size", 65536)
	v.SetDefault("limits.max_rooms", 1000)
	v.SetDefault("limits.max_object_depth", 10)
	v.SetDefault("limits.max_object_elements", 1000)
	v.SetDefault("limits.messages_per_second", 30)
	v.SetDefault("limits.burst_size", 10)
	v.SetDefault("cleanup.interval", "15m")
	v.SetDefault("cleanup.room_idle", "1h")
	v.SetDefault("cleanup.session_ttl", "24h")
}

// Load reads configuration from path (optional; "" means defaults and
// environment only).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("OPENBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		Server: Server{
			Addr:    v.GetString("server.addr"),
			Domains: v.GetStringSlice("server.domains"),
		},
		Log: Log{
			Level: v.GetString("log.level"),
		},
		Cluster: Cluster{
			Node:  v.GetString("cluster.node"),
			Peers: v.GetStringSlice("cluster.peers"),
		},
		Files: Files{
			Dir: v.GetString("files.dir"),
			DB:  v.GetString("files.db"),
		},
		Sign: Sign{
			Secret: v.GetString("sign.secret"),
			TTL:    v.GetDuration("sign.ttl"),
		},
		Limits: Limits{
			MaxRoomSize:       v.GetInt("limits.max_room_size"),
			MaxObjects:        v.GetInt("limits.max_objects"),
			MaxMessageSize:    v.GetInt("limits.max_message_size"),
			MaxRooms:          v.GetInt("limits.max_rooms"),
			MaxObjectDepth:    v.GetInt("limits.max_object_depth"),
			MaxObjectElements: v.GetInt("limits.max_object_elements"),
			MessagesPerSecond: v.GetFloat64("limits.messages_per_second"),
			BurstSize:         v.GetInt("limits.burst_size"),
		},
		Cleanup: Cleanup{
			Interval:   v.GetDuration("cleanup.interval"),
			RoomIdle:   v.GetDuration("cleanup.room_idle"),
			SessionTTL: v.GetDuration("cleanup.session_ttl"),
		},
	}
	return cfg, nil
}
