// Package testdb gives integration tests a migrated PostgreSQL database or a
// Redis client, skipping the test when the service is not configured.
//
// Set AMORA_TEST_DATABASE_URL and AMORA_TEST_REDIS_ADDR to run them. When
// AMORA_REQUIRE_INTEGRATION is set (as CI does), a missing address fails the
// test instead of skipping it.
//
//	func TestSomething(t *testing.T) {
//	    db := testdb.GetTestDBWithT(t)
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        // changes are rolled back when fn returns
//	    })
//	}
package testdb
