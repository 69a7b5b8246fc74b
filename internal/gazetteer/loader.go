package gazetteer

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed data/countries.yaml data/states.yaml
var embedded embed.FS

const (
	embeddedCountries = "data/countries.yaml"
	embeddedStates    = "data/states.yaml"
)

// ParseDataset decodes one YAML dataset. Unknown fields are rejected.
func ParseDataset(r io.Reader) (Dataset, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var ds Dataset
	if err := dec.Decode(&ds); err != nil {
		if errors.Is(err, io.EOF) {
			return Dataset{}, fmt.Errorf("%w: empty dataset", ErrDataLoad)
		}
		return Dataset{}, fmt.Errorf("%w: parsing dataset: %w", ErrDataLoad, err)
	}
	return ds, nil
}

// LoadEmbedded builds the gazetteer from the datasets compiled into the binary.
func LoadEmbedded() (*Gazetteer, error) {
	return LoadFiles("", "")
}

// LoadFiles builds the gazetteer from YAML files. An empty path selects the
// embedded dataset for that category.
func LoadFiles(countriesPath, statesPath string) (*Gazetteer, error) {
	datasets, err := ReadDatasets(countriesPath, statesPath)
	if err != nil {
		return nil, err
	}
	return Build(datasets...)
}

// ReadDatasets parses the country and state datasets without indexing them.
// An empty path selects the embedded dataset.
func ReadDatasets(countriesPath, statesPath string) ([]Dataset, error) {
	countries, err := readDataset(countriesPath, embeddedCountries)
	if err != nil {
		return nil, err
	}
	states, err := readDataset(statesPath, embeddedStates)
	if err != nil {
		return nil, err
	}
	return []Dataset{countries, states}, nil
}

func readDataset(path, fallback string) (Dataset, error) {
	var (
		data []byte
		err  error
	)
	if path != "" {
		data, err = os.ReadFile(path)
	} else {
		path = fallback
		data, err = embedded.ReadFile(fallback)
	}
	if err != nil {
		return Dataset{}, fmt.Errorf("%w: reading %s: %w", ErrDataLoad, path, err)
	}

	ds, err := ParseDataset(bytes.NewReader(data))
	if err != nil {
		return Dataset{}, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}
