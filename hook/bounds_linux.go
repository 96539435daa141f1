package hook

import (
	"debug/elf"
	"os"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

type symbolSlice []elf.Symbol

func (a symbolSlice) Len() int           { return len(a) }
func (a symbolSlice) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a symbolSlice) Less(i, j int) bool { return a[i].Value < a[j].Value }

// elfBounds sizes functions of the running executable from its symbol table.
type elfBounds struct {
	once   sync.Once
	path   string
	symbol symbolSlice
	err    error
}

func defaultBounds() Bounds {
	path, _ := os.Executable()
	return &elfBounds{path: path}
}

func (b *elfBounds) init() {
	f, err := elf.Open(b.path)
	if err != nil {
		b.err = err
		return
	}
	defer f.Close()

	sym, err := f.Symbols()
	if err != nil {
		b.err = err
		return
	}
	b.symbol = symbolSlice(sym)
	sort.Sort(b.symbol)
}

func (b *elfBounds) FuncSize(addr uintptr) (uint32, error) {
	b.once.Do(b.init)
	if b.err != nil {
		return 0, errors.Wrap(b.err, "read symbols")
	}
	i := sort.Search(len(b.symbol), func(i int) bool { return b.symbol[i].Value >= uint64(addr) })
	if i < len(b.symbol) && b.symbol[i].Value == uint64(addr) && b.symbol[i].Size > 0 {
		return uint32(b.symbol[i].Size), nil
	}
	return 0, errors.Errorf("no symbol at %#x", addr)
}
