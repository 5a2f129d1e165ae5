// kmtree prints the layout of a km3 tree file: its keys, branch
// metadata, the MC header and a value preview of a chosen branch.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/km3py/km3go/definitions"
	"github.com/km3py/km3go/jagged"
	"github.com/km3py/km3go/klog"
	"github.com/km3py/km3go/ktree"
	"github.com/km3py/km3go/rootio"
)

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	fileIn := flag.String("file", "", "Input file, overrides the configuration")
	branch := flag.String("branch", "", "Branch to preview, overrides the configuration")
	flag.Parse()

	logger := slog.New(klog.NewHandler(os.Stdout, nil))
	klog.SetLogger(klog.FromSlog(logger))

	configuration, err := LoadConfiguration(*configFilename)
	if err != nil {
		fmt.Println("Error reading configuration file: ", err)
		os.Exit(1)
	}
	if *fileIn != "" {
		configuration.FileIn = *fileIn
	}
	if *branch != "" {
		configuration.Branch = *branch
	}
	if configuration.FileIn == "" {
		fmt.Println("No input file given, use -file or the configuration")
		os.Exit(1)
	}
	printConfiguration(configuration)

	file, err := ktree.Open(configuration.FileIn)
	if err != nil {
		fmt.Println("Error opening file:", err)
		os.Exit(1)
	}
	defer file.Close()

	fmt.Printf("%s (uuid %s)\n", file.Path(), file.UUID())
	for _, key := range file.Keys() {
		b, err := file.Branch(key)
		if err != nil {
			fmt.Println("Error reading branch:", err)
			os.Exit(1)
		}
		fmt.Printf("  %-40s %-6s depth=%d codec=%s entries=%d\n",
			b.Path(), b.DType(), b.Depth(), b.Codec(), b.Entries())
	}

	if configuration.ShowHeader && file.HeaderText() != "" {
		fmt.Println(rootio.ParseHeader(file.HeaderText()))
	}

	if configuration.Branch != "" {
		if err := printBranch(file, configuration.Branch, configuration.MaxEntries); err != nil {
			fmt.Println("Error previewing branch:", err)
			os.Exit(1)
		}
	}

	if !configuration.NoDB {
		db, err := definitions.ConnectToDatabase(configuration.dbConfig())
		if err != nil {
			fmt.Println("Error connecting to database:", err)
			os.Exit(1)
		}
		defer db.Close()
		defs, err := definitions.FromDB(db, configuration.DBTable, configuration.Run)
		if err != nil {
			fmt.Println("Error reading definitions:", err)
			os.Exit(1)
		}
		for name, value := range defs {
			fmt.Printf("  %s = %d\n", name, value)
		}
	}
}

func printBranch(file *ktree.File, path string, maxEntries int) error {
	b, err := file.Branch(path)
	if err != nil {
		return err
	}
	stop := b.Entries()
	if int64(maxEntries) < stop {
		stop = int64(maxEntries)
	}
	fmt.Printf("%s, first %d of %d entries:\n", path, stop, b.Entries())

	switch b.DType() {
	case ktree.Bool:
		return preview[bool](b, stop)
	case ktree.I8:
		return preview[int8](b, stop)
	case ktree.U8, ktree.Bytes:
		return preview[uint8](b, stop)
	case ktree.I16:
		return preview[int16](b, stop)
	case ktree.U16:
		return preview[uint16](b, stop)
	case ktree.I32:
		return preview[int32](b, stop)
	case ktree.U32:
		return preview[uint32](b, stop)
	case ktree.I64:
		return preview[int64](b, stop)
	case ktree.U64:
		return preview[uint64](b, stop)
	case ktree.F32:
		return preview[float32](b, stop)
	case ktree.F64:
		return preview[float64](b, stop)
	}
	return fmt.Errorf("unhandled branch type %s", b.DType())
}

func preview[T ktree.Value](b *ktree.Branch, stop int64) error {
	arr, err := ktree.ReadRange[T](b, 0, stop)
	if err != nil {
		return err
	}
	for i := int64(0); i < stop; i++ {
		entry, err := arr.Index(jagged.At(int(i)))
		if err != nil {
			return err
		}
		fmt.Printf("  [%d] %v\n", i, entry.RawValues())
	}
	return nil
}
