package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Logger struct {
	Level string `yaml:"level"`
	// Dir, when set, adds a per-invocation timestamped log file under it.
	Dir string `yaml:"dir"`
}

type Server struct {
	Addr string `yaml:"addr"`
}

type Global struct {
	Logger Logger `yaml:"logger"`
	Server Server `yaml:"server"`
}

type Delay struct {
	MinSeconds float64 `yaml:"min_seconds"`
	MaxSeconds float64 `yaml:"max_seconds"`
}

func (d Delay) Min() time.Duration {
	return time.Duration(d.MinSeconds * float64(time.Second))
}

func (d Delay) Max() time.Duration {
	return time.Duration(d.MaxSeconds * float64(time.Second))
}

type Selectors struct {
	Item      string `yaml:"item"`
	Name      string `yaml:"name"`
	Location  string `yaml:"location"`
	Revenue   string `yaml:"revenue"`
	Employees string `yaml:"employees"`
}

type Target struct {
	Name           string    `yaml:"name"`
	URL            string    `yaml:"url"`
	Output         string    `yaml:"output"`
	Delay          Delay     `yaml:"delay"`
	MaxPages       int       `yaml:"max_pages"`
	TimeoutSeconds int       `yaml:"timeout_seconds"`
	UserAgent      string    `yaml:"user_agent"`
	Selectors      Selectors `yaml:"selectors"`
}

type Harvest struct {
	Concurrent bool     `yaml:"concurrent"`
	Targets    []Target `yaml:"targets"`
}

type Harvester struct {
	Global  Global  `yaml:"global"`
	Harvest Harvest `yaml:"harvest"`
}

func NewHarvesterFromFile(fpath string) (*Harvester, error) {
	bs, err := os.ReadFile(fpath)
	if err != nil {
		return nil, err
	}

	var harvester Harvester
	if err := yaml.Unmarshal(bs, &harvester); err != nil {
		return nil, err
	}

	harvester.applyDefaults()
	if err := harvester.Validate(); err != nil {
		return nil, err
	}

	return &harvester, nil
}

func (h *Harvester) applyDefaults() {
	for i := range h.Harvest.Targets {
		t := &h.Harvest.Targets[i]
		if t.TimeoutSeconds == 0 {
			t.TimeoutSeconds = 30
		}
		if t.Delay.MinSeconds == 0 && t.Delay.MaxSeconds == 0 {
			t.Delay.MinSeconds = 1
			t.Delay.MaxSeconds = 3
		}
		if t.Name == "" {
			t.Name = t.URL
		}
	}
}

func (h *Harvester) Validate() error {
	if len(h.Harvest.Targets) == 0 {
		return fmt.Errorf("config declares no harvest targets")
	}
	for _, t := range h.Harvest.Targets {
		if t.URL == "" {
			return fmt.Errorf("target %q has no url", t.Name)
		}
		if t.Output == "" {
			return fmt.Errorf("target %q has no output path", t.Name)
		}
		if t.Delay.MaxSeconds < t.Delay.MinSeconds {
			return fmt.Errorf("target %q delay max %.2fs is below min %.2fs",
				t.Name, t.Delay.MaxSeconds, t.Delay.MinSeconds)
		}
		if t.MaxPages < 0 {
			return fmt.Errorf("target %q max_pages must not be negative", t.Name)
		}
	}
	return nil
}
