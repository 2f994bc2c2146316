package main

import (
	"fmt"
	"io"
	"os"

	"github.com/aligator/akaifat"
	"github.com/aligator/akaifat/fat"
	"github.com/spf13/afero"
)

// main is just a example main to play with akaifat. It walks a whole image
// and prints the first bytes of every file.
func main() {
	argsWithoutProg := os.Args[1:]
	if len(argsWithoutProg) <= 0 {
		fmt.Println("Please provide an image file.")
		os.Exit(1)
	}

	afs, err := akaifat.OpenImage(afero.NewOsFs(), argsWithoutProg[0], fat.Options{ReadOnly: true})
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer afs.Close()

	fmt.Printf("Opened volume '%v' with type %v\n\n", afs.Label(), afs.FSType())

	err = afero.Walk(afs, "/", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		fmt.Println(path, info.IsDir(), info.Size(), info.ModTime())
		if info.IsDir() {
			return nil
		}

		file, err := afs.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()

		head := make([]byte, 16)
		n, err := io.ReadFull(file, head)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return err
		}
		fmt.Printf("  % x\n", head[:n])
		return nil
	})
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
