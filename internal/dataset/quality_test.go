package dataset

import (
	"context"
	"testing"
)

func TestCheckPricesReportsAnomalies(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, "prices.csv", ""+
		"Date,Close,Volume,Stock Name\n"+
		"2021-10-01,100,1000,TSLA\n"+
		"2021-10-01,101,1000,TSLA\n"+
		"not-a-date,102,1000,TSLA\n"+
		"2021-10-02,-5,1000,TSLA\n"+
		"2021-10-03,103,abc,TSLA\n")

	profile := withDefaults(Profile{Prices: PriceProfile{Path: path}})
	report, err := CheckPrices(context.Background(), profile)
	if err != nil {
		t.Fatalf("check prices: %v", err)
	}
	if report.Status != "ok" || report.Rows != 5 {
		t.Fatalf("report = %+v", report)
	}
	if report.InvalidDates != 1 || report.BadClose != 1 || report.BadVolume != 1 || report.DuplicateKeys != 1 {
		t.Fatalf("anomaly counts = %+v", report)
	}
}

func TestCheckPricesMissingColumns(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, "prices.csv", "Date,Close\n2021-10-01,100\n")
	profile := withDefaults(Profile{Prices: PriceProfile{Path: path}})
	report, err := CheckPrices(context.Background(), profile)
	if err != nil {
		t.Fatalf("check prices: %v", err)
	}
	if report.Status != "missing_columns" || len(report.MissingColumns) != 2 {
		t.Fatalf("report = %+v", report)
	}
}

func TestCheckSocialReportsAnomalies(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, "tweets.csv", ""+
		"Date,Stock Name,Tweet\n"+
		"2021-10-01,TSLA,hello\n"+
		"2021-10-01,TSLA,hello\n"+
		"2021-10-01,TSLA,\n"+
		"2021-10-01,,world\n"+
		"bad-date,TSLA,later\n")

	profile := withDefaults(Profile{Social: SocialProfile{Path: path}})
	report, err := CheckSocial(context.Background(), profile)
	if err != nil {
		t.Fatalf("check social: %v", err)
	}
	if report.Status != "ok" || report.Rows != 5 {
		t.Fatalf("report = %+v", report)
	}
	if report.DuplicateTextPerDay != 1 || report.EmptyText != 1 || report.EmptyTicker != 1 || report.InvalidDates != 1 {
		t.Fatalf("anomaly counts = %+v", report)
	}
}
