// Package generator holds the text-generation model loader. Real inference
// is out of scope: the loader prepares the cache directory and always
// settles on the mock backend.
package generator

import (
	"fmt"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"
)

// mockPromptLen bounds the prompt echo in mock responses.
const mockPromptLen = 50

// Loader manages the lifecycle of the generation model.
type Loader struct {
	modelName string
	cacheDir  string

	mu     sync.Mutex
	loaded bool
}

// NewLoader constructs a Loader for the configured model.
func NewLoader(modelName, cacheDir string) *Loader {
	return &Loader{modelName: modelName, cacheDir: cacheDir}
}

// Initialize prepares the model cache directory and activates the mock
// backend.
func (l *Loader) Initialize() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.loaded {
		return nil
	}
	if errMkdir := os.MkdirAll(l.cacheDir, 0o755); errMkdir != nil {
		return fmt.Errorf("generator: create cache dir: %w", errMkdir)
	}
	log.Infof("generator: model %s not available locally, using mock backend", l.modelName)
	l.loaded = true
	return nil
}

// Generate produces a response for the prompt. With the mock backend the
// response echoes the prompt prefix.
func (l *Loader) Generate(prompt string) (string, error) {
	l.mu.Lock()
	loaded := l.loaded
	l.mu.Unlock()
	if !loaded {
		if errInit := l.Initialize(); errInit != nil {
			return "", errInit
		}
	}

	echo := prompt
	if len(echo) > mockPromptLen {
		echo = echo[:mockPromptLen]
	}
	return fmt.Sprintf("Generated response for: %s...", echo), nil
}

// Unload releases the model.
func (l *Loader) Unload() {
	l.mu.Lock()
	l.loaded = false
	l.mu.Unlock()
}
