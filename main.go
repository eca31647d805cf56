package main

import (
	"github.com/tanpawarit/erp-insight-agent/cmd"
	_ "github.com/tanpawarit/erp-insight-agent/pkg/logger/autoload"
)

func main() {
	cmd.Execute()
}
