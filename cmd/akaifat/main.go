// Command akaifat formats and edits FAT16 images with Akai long names.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
)

const usage = `Usage: akaifat [--verbose] <command> <image> [arguments]

Commands:
  format <image>              create or overwrite an image (--size, --label, --oem, --fats)
  ls     <image> [path]       list a directory (-l for details)
  cat    <image> <path>       print a file
  put    <image> <src> <dst>  copy a local file into the image
  mkdir  <image> <path>       create a directory (-p for parents)
  rm     <image> <path>       remove a file or an empty directory (-r for trees)
  mv     <image> <old> <new>  rename or move an entry
  df     <image>              show free and usable space
  label  <image> [label]      show or change the volume label
`

// command runs a sub command on the arguments following the image name.
type command func(env *env, args []string) error

var commands = map[string]command{
	"format": formatCmd,
	"ls":     lsCmd,
	"cat":    catCmd,
	"put":    putCmd,
	"mkdir":  mkdirCmd,
	"rm":     rmCmd,
	"mv":     mvCmd,
	"df":     dfCmd,
	"label":  labelCmd,
}

// env is shared by all commands.
type env struct {
	host afero.Fs
	log  *logrus.Logger
	out  *os.File
}

func main() {
	log := logrus.New()

	flags := pflag.NewFlagSet("akaifat", pflag.ExitOnError)
	flags.SetInterspersed(false)
	verbose := flags.BoolP("verbose", "v", false, "log debug messages")
	flags.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	_ = flags.Parse(os.Args[1:])

	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}

	args := flags.Args()
	if len(args) == 0 {
		flags.Usage()
		os.Exit(2)
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		flags.Usage()
		os.Exit(2)
	}

	e := &env{host: afero.NewOsFs(), log: log, out: os.Stdout}
	if err := cmd(e, args[1:]); err != nil {
		log.WithField("command", args[0]).Fatal(err)
	}
}
