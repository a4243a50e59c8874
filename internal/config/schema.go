package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON string

const schemaURL = "voxelworld-config.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func schema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("ошибка загрузки схемы конфига: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// ValidateDocument проверяет YAML документ по встроенной JSON Schema
func ValidateDocument(data []byte) error {
	s, err := schema()
	if err != nil {
		return err
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("ошибка разбора YAML: %w", err)
	}
	if doc == nil {
		// Пустой файл - все значения по умолчанию
		return nil
	}

	// Приводим к JSON-модели: валидатор ожидает значения encoding/json
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("конфиг не представим в JSON: %w", err)
	}
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	var jsonDoc any
	if err := dec.Decode(&jsonDoc); err != nil {
		return fmt.Errorf("ошибка преобразования конфига: %w", err)
	}

	if err := s.Validate(jsonDoc); err != nil {
		return fmt.Errorf("конфиг не соответствует схеме: %w", err)
	}
	return nil
}
