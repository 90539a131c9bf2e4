package pricegen

import "papertradev1/internal/model"

// Catalog returns the built-in NSE demo instrument set with starting prices.
// Prices are in paise.
func Catalog() []model.Instrument {
	mk := func(id, symbol, name string, price int64) model.Instrument {
		return model.Instrument{
			ID:            id,
			Symbol:        symbol,
			Name:          name,
			Exchange:      "NSE",
			CurrentPrice:  price,
			PreviousClose: price,
			Open:          price,
			DayHigh:       price,
			DayLow:        price,
		}
	}

	return []model.Instrument{
		mk("reliance", "RELIANCE", "Reliance Industries", 2856_50),
		mk("tcs", "TCS", "Tata Consultancy Services", 3642_00),
		mk("hdfcbank", "HDFCBANK", "HDFC Bank", 1687_25),
		mk("infy", "INFY", "Infosys", 1511_80),
		mk("icicibank", "ICICIBANK", "ICICI Bank", 1042_60),
		mk("sbin", "SBIN", "State Bank of India", 825_40),
		mk("tatamotors", "TATAMOTORS", "Tata Motors", 976_15),
		mk("wipro", "WIPRO", "Wipro", 489_30),
		mk("bhartiartl", "BHARTIARTL", "Bharti Airtel", 1555_70),
		mk("itc", "ITC", "ITC", 438_90),
	}
}
