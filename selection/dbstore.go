package selection

import (
	"os"

	"github.com/wpkg-go/wpkgar/store"
)

// DatabaseStore adapts store.Database to the Store interface this package
// consumes, keeping selection persistence decoupled from the database's
// own (much larger) API surface.
type DatabaseStore struct {
	DB *store.Database
}

const selectionField = "X-Selection"

func (d DatabaseStore) SelectionField(name string) (string, error) {
	fields, err := d.DB.StatusFields(name)
	if err != nil {
		return "", err
	}
	v, _ := fields.Get(selectionField)
	return v, nil
}

func (d DatabaseStore) SetSelectionField(name, value string) error {
	return d.DB.SetStatusField(name, selectionField, value)
}

func (d DatabaseStore) HasRecord(name string) (bool, error) {
	_, err := os.Stat(d.DB.PackageDir(name))
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}

func (d DatabaseStore) CreatePlaceholder(name, version string) error {
	if err := d.DB.WriteControl(name, placeholderFields(name, version)); err != nil {
		return err
	}
	return d.DB.SetStatus(name, store.StatusConfigFiles)
}

func placeholderFields(name, version string) map[string]string {
	return map[string]string{
		"package":      name,
		"version":      version,
		"architecture": "all",
	}
}
