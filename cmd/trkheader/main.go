package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var cmdMain = &cobra.Command{
	Use:   "trkheader <input>",
	Short: "Print a TrackVis (.trk) header in a readable form",
	Long: `Print the fields of the header of a TrackVis file. The file can be
compressed (.trk.gz, .trk.zst). With --all, the byte order and the
transformations between TrackVis and world space are printed too.`,
	Args: cobra.ExactArgs(1),
	Run:  run,
}

var flagMain struct {
	All     bool
	YAML    bool
	Verbose bool
}

func init() {
	cmdMain.Flags().BoolVarP(&flagMain.All, "all", "a", false, "Also print computed fields (endianness, affines)")
	cmdMain.Flags().BoolVar(&flagMain.YAML, "yaml", false, "Print the header as YAML")
	cmdMain.Flags().BoolVarP(&flagMain.Verbose, "verbose", "v", false, "Log warnings about the file")
}

func main() {
	_ = cmdMain.Execute()
}

func run(cmd *cobra.Command, args []string) {
	if flagMain.Verbose {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.ErrorLevel)
	}
	out := cmd.OutOrStdout()
	var err error
	if flagMain.YAML {
		err = printYAML(out, args[0], flagMain.All)
	} else {
		err = printText(out, args[0], flagMain.All)
	}
	check(err)
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func check(err error) {
	if err != nil {
		fatalf("%v", err)
	}
}
