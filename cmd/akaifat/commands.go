package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/aligator/akaifat"
	"github.com/aligator/akaifat/fat"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
)

var errUsage = errors.New("wrong number of arguments, see akaifat --help")

// parse parses the flags of a sub command and checks the number of positional
// arguments, the image name included.
func parse(flags *pflag.FlagSet, args []string, min, max int) ([]string, error) {
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	rest := flags.Args()
	if len(rest) < min || len(rest) > max {
		return nil, errUsage
	}
	return rest, nil
}

// open mounts the image and runs fn, the volume is closed afterwards.
func (e *env) open(image string, readOnly bool, fn func(afs *akaifat.Fs) error) (err error) {
	e.log.WithFields(logrus.Fields{"image": image, "readOnly": readOnly}).Debug("opening image")

	afs, err := akaifat.OpenImage(e.host, image, fat.Options{ReadOnly: readOnly, Logger: e.log})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := afs.Close(); err == nil {
			err = closeErr
		}
	}()
	return fn(afs)
}

func formatCmd(e *env, args []string) error {
	flags := pflag.NewFlagSet("format", pflag.ContinueOnError)
	size := flags.Int64("size", 16*1024*1024, "image size in bytes, used when the image does not exist")
	label := flags.String("label", "", "volume label")
	oem := flags.String("oem", "", "OEM name")
	fats := flags.Int("fats", 2, "number of FAT copies")
	rest, err := parse(flags, args, 1, 1)
	if err != nil {
		return err
	}

	var dev *fat.ImageDevice
	if ok, _ := afero.Exists(e.host, rest[0]); ok {
		dev, err = fat.OpenImage(e.host, rest[0], false)
	} else {
		dev, err = fat.CreateImage(e.host, rest[0], *size)
	}
	if err != nil {
		return err
	}
	defer dev.Close()

	vol, err := fat.Format(dev, fat.FormatConfig{
		Label:    *label,
		OEMName:  *oem,
		FatCount: *fats,
		Logger:   e.log,
	})
	if err != nil {
		return err
	}
	return vol.Close()
}

func lsCmd(e *env, args []string) error {
	flags := pflag.NewFlagSet("ls", pflag.ContinueOnError)
	long := flags.BoolP("long", "l", false, "show size, date and short name")
	rest, err := parse(flags, args, 1, 2)
	if err != nil {
		return err
	}
	dir := "/"
	if len(rest) == 2 {
		dir = rest[1]
	}

	return e.open(rest[0], true, func(afs *akaifat.Fs) error {
		infos, err := afero.ReadDir(afs, dir)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(e.out, 0, 8, 1, ' ', 0)
		for _, info := range infos {
			if !*long {
				fmt.Fprintln(w, info.Name())
				continue
			}
			short := ""
			if entry, ok := info.Sys().(*fat.Entry); ok {
				short = entry.ShortName().String()
			}
			fmt.Fprintf(w, "%v\t%d\t%s\t%s\t%s\n", info.Mode(), info.Size(), info.ModTime().Format("2006-01-02 15:04"), short, info.Name())
		}
		return w.Flush()
	})
}

func catCmd(e *env, args []string) error {
	rest, err := parse(pflag.NewFlagSet("cat", pflag.ContinueOnError), args, 2, 2)
	if err != nil {
		return err
	}

	return e.open(rest[0], true, func(afs *akaifat.Fs) error {
		f, err := afs.Open(rest[1])
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(e.out, f)
		return err
	})
}

func putCmd(e *env, args []string) error {
	rest, err := parse(pflag.NewFlagSet("put", pflag.ContinueOnError), args, 3, 3)
	if err != nil {
		return err
	}

	src, err := e.host.Open(rest[1])
	if err != nil {
		return err
	}
	defer src.Close()

	return e.open(rest[0], false, func(afs *akaifat.Fs) error {
		dst, err := afs.Create(rest[2])
		if err != nil {
			return err
		}
		n, err := io.Copy(dst, src)
		if closeErr := dst.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return err
		}
		e.log.WithFields(logrus.Fields{"file": rest[2], "bytes": n}).Info("stored")
		return nil
	})
}

func mkdirCmd(e *env, args []string) error {
	flags := pflag.NewFlagSet("mkdir", pflag.ContinueOnError)
	parents := flags.BoolP("parents", "p", false, "create missing parent directories")
	rest, err := parse(flags, args, 2, 2)
	if err != nil {
		return err
	}

	return e.open(rest[0], false, func(afs *akaifat.Fs) error {
		if *parents {
			return afs.MkdirAll(rest[1], 0777)
		}
		return afs.Mkdir(rest[1], 0777)
	})
}

func rmCmd(e *env, args []string) error {
	flags := pflag.NewFlagSet("rm", pflag.ContinueOnError)
	recursive := flags.BoolP("recursive", "r", false, "remove directories with their content")
	rest, err := parse(flags, args, 2, 2)
	if err != nil {
		return err
	}

	return e.open(rest[0], false, func(afs *akaifat.Fs) error {
		if *recursive {
			return afs.RemoveAll(rest[1])
		}
		return afs.Remove(rest[1])
	})
}

func mvCmd(e *env, args []string) error {
	rest, err := parse(pflag.NewFlagSet("mv", pflag.ContinueOnError), args, 3, 3)
	if err != nil {
		return err
	}

	return e.open(rest[0], false, func(afs *akaifat.Fs) error {
		return afs.Rename(rest[1], rest[2])
	})
}

func dfCmd(e *env, args []string) error {
	rest, err := parse(pflag.NewFlagSet("df", pflag.ContinueOnError), args, 1, 1)
	if err != nil {
		return err
	}

	return e.open(rest[0], true, func(afs *akaifat.Fs) error {
		vol := afs.FileSystem()
		free, err := vol.FreeSpace()
		if err != nil {
			return err
		}
		usable, err := vol.UsableSpace()
		if err != nil {
			return err
		}
		fmt.Fprintf(e.out, "label:  %s\nfree:   %d\nusable: %d\n", afs.Label(), free, usable)
		return nil
	})
}

func labelCmd(e *env, args []string) error {
	rest, err := parse(pflag.NewFlagSet("label", pflag.ContinueOnError), args, 1, 2)
	if err != nil {
		return err
	}

	if len(rest) == 1 {
		return e.open(rest[0], true, func(afs *akaifat.Fs) error {
			fmt.Fprintln(e.out, afs.Label())
			return nil
		})
	}
	return e.open(rest[0], false, func(afs *akaifat.Fs) error {
		if err := afs.FileSystem().SetVolumeLabel(rest[1]); err != nil {
			return err
		}
		return afs.FileSystem().Flush()
	})
}
