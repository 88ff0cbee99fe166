package csv

// Template returns the canonical example CSV handed to operators. Parsing it
// always succeeds with zero errors and three records.
func Template() string {
	return "recipient,amount,currency,memo\n" +
		"hermann,1000,SATS,thanks for the coffee\n" +
		"satoshi@example.com,0.5,USD,invoice 42\n" +
		"lnurl1dp68gurn8ghj7um9wfmxjcm99e3k7mf0v9cxj0m385ekvcenxc6r2c35xvukxefcv5mkvv34x5ekzd3ev56nyd3hxqurzepexejxxepnxscrvwfnv9nxzcn9xq6xyefhvgcxxcmyxymnserxfq5fns,21,SATS,\n"
}
