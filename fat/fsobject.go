package fat

import "github.com/aligator/akaifat/checkpoint"

// fsObject carries the validity and the write access of files,
// directories, entries and the file system itself.
type fsObject struct {
	readOnly bool
	invalid  bool
}

// IsValid is false once the object was removed or closed.
func (o *fsObject) IsValid() bool {
	return !o.invalid
}

func (o *fsObject) IsReadOnly() bool {
	return o.readOnly
}

func (o *fsObject) invalidate() {
	o.invalid = true
}

func (o *fsObject) checkValid() error {
	if o.invalid {
		return checkpoint.From(ErrInvalidated)
	}
	return nil
}

func (o *fsObject) checkWritable() error {
	if err := o.checkValid(); err != nil {
		return err
	}
	if o.readOnly {
		return checkpoint.From(ErrReadOnly)
	}
	return nil
}
