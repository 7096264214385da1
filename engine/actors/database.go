package actors

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
)

// Open returns the flat file db of the given mind, or false if it has never been written.
func Open(mind, db string) (*os.File, bool, error) {
	if err := os.MkdirAll(directory(mind), 0777); err != nil {
		return nil, false, err
	}
	_, err := os.Stat(directory(mind) + db + ".dat")
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	file, err := os.Open(directory(mind) + db + ".dat")
	if err != nil {
		return nil, false, err
	}
	return file, true, nil
}

// Write replaces the flat file db of the given mind.
func Write(mind, db string, b []byte) error {
	if err := os.MkdirAll(directory(mind), 0777); err != nil {
		return err
	}
	f, err := os.Create(directory(mind) + db + ".dat")
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, bytes.NewReader(b))
	return err
}

// WriteJSON exports v as indented JSON, so the state can be inspected without the engine.
func WriteJSON(mind, db string, v any) error {
	b, err := json.MarshalIndent(v, "", " ")
	if err != nil {
		return err
	}
	return Write(mind, db, b)
}

func directory(mind string) string {
	dir := MakeOrGetConfig().GetString("rootDir")
	dir = dir + MakeOrGetConfig().GetString("flatFileDir")
	dir = dir + mind + "/"
	return dir
}
