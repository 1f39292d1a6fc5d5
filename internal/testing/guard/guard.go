package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("ACADEMIA_TEST_MODE") == "" {
			_ = os.Setenv("ACADEMIA_TEST_MODE", "1")
		}
	})
}
