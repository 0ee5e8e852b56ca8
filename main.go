// bayspecies estimates how many species a partially sampled population
// contains, from the counts of the species observed so far.
package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ecostat/bayspecies/bayspecies"
	"github.com/ecostat/bayspecies/dataset"
)

// Version is the semantic version number, set at build time.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "bayspecies",
	Short: "Bayesian unseen-species estimation from partial sample counts",
	Long: `bayspecies reads species counts per subject from a CSV file and
computes the posterior distribution of the total number of species,
including the ones not observed yet, by hierarchical Bayesian
inference over Dirichlet-multinomial models.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().String("data", "", "CSV file of (subject, species, count) rows")
	rootCmd.Flags().String("subject", "", "subject code to estimate; empty processes every subject")
	rootCmd.Flags().String("variant", string(bayspecies.VariantVectorized), "estimation variant: pern, vectorized, incremental or restricted")
	rootCmd.Flags().Int("iterations", 1000, "Monte-Carlo draws per update")
	rootCmd.Flags().Uint64("seed", 17, "random seed")
	rootCmd.Flags().Int("threads", runtime.GOMAXPROCS(0), "worker goroutines for multi-subject runs")
	rootCmd.Flags().Int("prevalences", 3, "number of top categories to report prevalence for")
	viper.SetEnvPrefix("BAYSPECIES")
	viper.AutomaticEnv()
	if err := viper.BindPFlags(rootCmd.Flags()); err != nil {
		log.WithError(err).Fatal("could not bind flags")
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	dataPath := viper.GetString("data")
	if dataPath == "" {
		return fmt.Errorf("--data is required")
	}
	subjects, err := dataset.ReadSubjects(dataPath)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"version":  Version,
		"subjects": len(subjects),
		"data":     dataPath,
	}).Info("loaded dataset")

	variant := bayspecies.Variant(viper.GetString("variant"))
	iterations := viper.GetInt("iterations")
	seed := viper.GetUint64("seed")

	code := viper.GetString("subject")
	if code == "" {
		return runAll(subjects, variant, iterations, seed)
	}
	for _, subject := range subjects {
		if subject.Code == code {
			return runOne(subject, variant, iterations, seed)
		}
	}
	return fmt.Errorf("subject %q not found in %v", code, dataPath)
}

func runOne(subject *dataset.Subject, variant bayspecies.Variant, iterations int, seed uint64) error {
	counts := subject.Counts()
	ns := bayspecies.CandidateRange(len(counts))

	suite, err := bayspecies.New(variant, ns, iterations, seed)
	if err != nil {
		return err
	}
	start := time.Now()
	if err := suite.Update(counts); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"subject":    subject.Code,
		"variant":    variant,
		"observed":   len(counts),
		"iterations": iterations,
		"elapsed":    time.Since(start),
	}).Info("posterior computed")

	posterior := suite.DistOfN()
	fmt.Printf("subject %v: observed %v species\n", subject.Code, len(counts))
	fmt.Printf("  N mode %v  mean %.2f  90%% CI [%v, %v]\n",
		posterior.Mode(), bayspecies.Mean(posterior),
		posterior.Percentile(5), posterior.Percentile(95))

	top := viper.GetInt("prevalences")
	if top > len(counts) {
		top = len(counts)
	}
	for i := 0; i < top; i++ {
		prevalence, err := suite.DistOfPrevalence(i)
		if err != nil {
			return err
		}
		fmt.Printf("  %v (count %v): mean prevalence %.4f\n",
			subject.Species[i].Name, counts[i], bayspecies.Mean(prevalence))
	}
	return nil
}

func runAll(subjects []*dataset.Subject, variant bayspecies.Variant, iterations int, seed uint64) error {
	countsPerSubject := make([][]int, len(subjects))
	for i, subject := range subjects {
		countsPerSubject[i] = subject.Counts()
	}
	posteriors, err := bayspecies.ProcessSubjects(countsPerSubject, bayspecies.BatchParam{
		Variant:    variant,
		Iterations: iterations,
		Threads:    viper.GetInt("threads"),
		Seed:       seed,
		Progress:   true,
	})
	if err != nil {
		return err
	}
	for i, posterior := range posteriors {
		fmt.Printf("%v: observed %v, N mode %v, mean %.2f\n",
			subjects[i].Code, len(countsPerSubject[i]),
			posterior.Mode(), bayspecies.Mean(posterior))
	}
	return nil
}
