package main

import (
	"github.com/urfave/cli"
)

func commands() []cli.Command {
	return []cli.Command{
		{
			Name:   "init",
			Usage:  "create the storage and the registry manifest",
			Action: runInit,
		},
		{
			Name:      "import",
			Usage:     "import objects from RPSL text files",
			ArgsUsage: "FILE...",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "batch, b",
					Value: 1000,
					Usage: " commit after `COUNT` objects",
				},
			},
			Action: runImport,
		},
		{
			Name:  "export",
			Usage: "write all objects as RPSL text",
			Flags: []cli.Flag{
				cli.StringSliceFlag{
					Name:  "class",
					Usage: " only export objects of `CLASS`",
				},
			},
			Action: runExport,
		},
		{
			Name:      "get",
			Usage:     "print an object",
			ArgsUsage: "CLASS KEY",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "json, j",
					Usage: " print as JSON",
				},
			},
			Action: runGet,
		},
		{
			Name:      "delete",
			Usage:     "delete an object and its index entries",
			ArgsUsage: "CLASS KEY",
			Action:    runDelete,
		},
		{
			Name:      "route",
			Usage:     "longest prefix match on route objects",
			ArgsUsage: "ADDRESS",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "limit",
					Usage: " print at most `COUNT` routes",
				},
			},
			Action: runRoute,
		},
		{
			Name:      "inetnum",
			Usage:     "find inetnums related to a network",
			ArgsUsage: "ADDRESS",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "relation, r",
					Value: ">>=",
					Usage: " `RELATION` of the results to the network [>>|<<|>>=|<<=]",
				},
				cli.StringFlag{
					Name:  "order, o",
					Value: "desc",
					Usage: " `ORDER` on prefix length [asc|desc]",
				},
				cli.IntFlag{
					Name:  "limit",
					Usage: " print at most `COUNT` inetnums",
				},
			},
			Action: runInetnum,
		},
		{
			Name:      "as-block",
			Usage:     "find the as-blocks containing an AS number",
			ArgsUsage: "ASN",
			Action:    runASBlock,
		},
		{
			Name:      "domain",
			Usage:     "find the domain objects of a name and its parent zones",
			ArgsUsage: "NAME",
			Action:    runDomain,
		},
		{
			Name:      "inverse",
			Usage:     "find objects referencing a value",
			ArgsUsage: "KEY VALUE",
			Flags: []cli.Flag{
				cli.StringSliceFlag{
					Name:  "class",
					Usage: " only return objects of `CLASS`",
				},
			},
			Action: runInverse,
		},
		{
			Name:   "reindex",
			Usage:  "rebuild all index entries",
			Action: runReindex,
		},
		{
			Name:  "serve",
			Usage: "serve the HTTP lookup API",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "listen",
					Value: "",
					Usage: " listen on `HOST:PORT`",
				},
			},
			Action: runServe,
		},
		{
			Name:  "config",
			Usage: "show or change the configuration",
			Subcommands: []cli.Command{
				{
					Name:      "get",
					Usage:     "print a configuration value",
					ArgsUsage: "KEY",
					Action:    runConfigGet,
				},
				{
					Name:      "set",
					Usage:     "change a configuration value",
					ArgsUsage: "KEY VALUE",
					Action:    runConfigSet,
				},
			},
		},
		{
			Name:   "version",
			Usage:  "display rpsldb version",
			Action: runVersion,
		},
	}
}
