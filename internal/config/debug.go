package config

import "os"

func IsDebug() bool {
	return os.Getenv("PORCH_DEBUG") == "1"
}
